package commands

import (
	"context"
	"fmt"
	"strconv"

	"faq-chatbot-be/cmd/faqctl/ui"
	"faq-chatbot-be/internal/config"
	"faq-chatbot-be/pkg/corpus"
	"faq-chatbot-be/pkg/embedding"

	"github.com/spf13/cobra"
)

var (
	manifestPath string
	embedSample  int
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every corpus lines up with its vector index",
	Long: `verify loads every domain in the manifest and reports entry and vector counts.
With --embed-check N it also re-embeds the first N entries of each domain with the
configured embedding provider and checks that each one finds its own row first.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "manifest path (defaults to CORPUS_MANIFEST)")
	verifyCmd.Flags().IntVar(&embedSample, "embed-check", 0, "re-embed this many entries per domain and compare with the index")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	path := manifestPath
	if path == "" {
		path = cfg.Corpus.ManifestPath
	}

	manifest, err := corpus.LoadManifest(path)
	if err != nil {
		return err
	}

	registry := corpus.NewRegistry(corpus.ManifestLoader(manifest, corpus.OpenFlatIndex))
	set, err := registry.Reload(ctx)
	if err != nil {
		ui.Fail("load corpus: %v", err)
		return err
	}

	stats := set.Stats()
	rows, failed := statsTable(stats)
	ui.Table([]string{"DOMAIN", "FAQ", "KNOWLEDGE", "VECTORS", "DIM", "DRIFT"}, rows)

	if failed > 0 {
		ui.Fail("%d domain(s) drifted from their index", failed)
		return fmt.Errorf("corpus drift in %d domain(s)", failed)
	}
	ui.OK("all domains consistent")

	if embedSample <= 0 {
		return nil
	}

	provider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingBaseURL,
		cfg.Ai.EmbeddingAPIKey,
		cfg.Ai.EmbeddingTimeout,
	)
	if err != nil {
		return err
	}

	var results []embedCheckResult
	for _, st := range stats {
		d, err := registry.Domain(st.Domain)
		if err != nil {
			return err
		}
		res, err := checkEmbeddings(ctx, provider, d, embedSample)
		if err != nil {
			ui.Fail("embed check %s: %v", st.Domain, err)
			return err
		}
		results = append(results, res)
	}

	table, mismatched := embedCheckTable(results)
	ui.Table([]string{"DOMAIN", "CHECKED", "MISMATCHED", "FIRST MISMATCH"}, table)
	if mismatched > 0 {
		ui.Fail("%d entries no longer find their own vector; rebuild the index", mismatched)
		return fmt.Errorf("%d embedding mismatches", mismatched)
	}
	ui.OK("stored vectors match the embedding provider")
	return nil
}

// statsTable renders stats as table rows and counts domains with non-zero drift.
func statsTable(stats []corpus.DomainStats) ([][]string, int) {
	rows := make([][]string, 0, len(stats))
	failed := 0
	for _, st := range stats {
		if st.Drift != 0 {
			failed++
		}
		rows = append(rows, []string{
			string(st.Domain),
			strconv.Itoa(st.FAQ),
			strconv.Itoa(st.Knowledge),
			strconv.Itoa(st.Vectors),
			strconv.Itoa(st.Dimension),
			strconv.Itoa(st.Drift),
		})
	}
	return rows, failed
}

type embedCheckResult struct {
	Domain     string
	Checked    int
	Mismatched []int
}

// checkEmbeddings embeds the first n entry texts and searches the index with
// each vector. An entry whose nearest row is not its own position is a mismatch.
func checkEmbeddings(ctx context.Context, provider embedding.EmbeddingProvider, d *corpus.Domain, n int) (embedCheckResult, error) {
	res := embedCheckResult{Domain: string(d.Name)}
	texts := d.Corpus.EmbeddingTexts()
	if n > len(texts) {
		n = len(texts)
	}
	for i := 0; i < n; i++ {
		vec, err := provider.Embed(ctx, texts[i])
		if err != nil {
			return res, fmt.Errorf("embed entry %d: %w", i, err)
		}
		hits, err := d.Index.Search(ctx, vec, 1)
		if err != nil {
			return res, fmt.Errorf("search entry %d: %w", i, err)
		}
		res.Checked++
		if len(hits) == 0 || hits[0].Position != i {
			res.Mismatched = append(res.Mismatched, i)
		}
	}
	return res, nil
}

func embedCheckTable(results []embedCheckResult) ([][]string, int) {
	rows := make([][]string, 0, len(results))
	total := 0
	for _, r := range results {
		first := "-"
		if len(r.Mismatched) > 0 {
			first = strconv.Itoa(r.Mismatched[0])
		}
		total += len(r.Mismatched)
		rows = append(rows, []string{r.Domain, strconv.Itoa(r.Checked), strconv.Itoa(len(r.Mismatched)), first})
	}
	return rows, total
}
