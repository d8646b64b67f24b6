package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/embedding"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/llm"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/retrieval"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

func newQueryCmd(a *app) *cobra.Command {
	var role, question string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Ask maintenance questions against the indexed breakdown records",
		Long: `Answer a question using the breakdown records of one plant, or of every plant
with --role master. Without --question an interactive session starts; type
"switch <role>" to change plant and "exit" to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd.Context(), role, question)
		},
	}
	cmd.Flags().StringVar(&role, "role", "master", "plant name or code, or master for all plants")
	cmd.Flags().StringVar(&question, "question", "", "answer a single question and exit")
	return cmd
}

func (a *app) runQuery(ctx context.Context, role, question string) error {
	cfg, logger, err := a.setup(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := vectorstore.NewQdrantStore(*cfg.Qdrant, logger)
	embedder := embedding.NewOllamaService(*cfg.Embedding, logger)
	retriever := retrieval.NewRetriever(store, embedder, cfg.Plants, cfg.RetrievalK, logger)
	service := retrieval.NewAnswerService(retriever, llm.NewOllamaGenerator(*cfg.LLM, logger), logger)

	if ok, message := service.VerifyConnection(ctx); !ok {
		fmt.Fprintln(a.stdout, message)
	}

	session := retrieval.NewSession(role, cfg.HistoryLimit)
	collection, _ := retriever.ResolveCollection(session.Role)
	fmt.Fprintf(a.stdout, "Using collection %s\n", collection)

	if question != "" {
		fmt.Fprintln(a.stdout, service.Query(ctx, session, question))
		return nil
	}
	return interact(ctx, a.stdin, a.stdout, service, retriever, session)
}

// interact reads questions line by line until "exit", EOF or cancellation
func interact(ctx context.Context, in io.Reader, out io.Writer, service *retrieval.AnswerService, retriever *retrieval.Retriever, session *retrieval.Session) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nQuestion (or 'exit'): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			return nil
		case strings.HasPrefix(strings.ToLower(line), "switch "):
			if service.SwitchRole(session, strings.TrimSpace(line[len("switch "):])) {
				collection, _ := retriever.ResolveCollection(session.Role)
				fmt.Fprintf(out, "Using collection %s\n", collection)
			} else {
				fmt.Fprintf(out, "Unknown role, staying on %s\n", session.Role)
			}
		default:
			fmt.Fprintln(out, service.Query(ctx, session, line))
		}
	}
}
