package commands

import (
	"faq-chatbot-be/cmd/faqctl/ui"
	"faq-chatbot-be/pkg/vectorindex"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <src.npy> <dst>",
	Short: "Convert a numpy vector dump into the native index format",
	Long: `convert reads a 2-D .npy matrix (float32 or float64) and writes it in the
native flat format, which loads without numpy header parsing. Point the domain's
index entry in the manifest at the new file afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := convertIndex(args[0], args[1])
		if err != nil {
			ui.Fail("convert: %v", err)
			return err
		}
		ui.OK("wrote %d vectors (dim %d) to %s", idx.Len(), idx.Dimension(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func convertIndex(src, dst string) (*vectorindex.FlatL2, error) {
	idx, err := vectorindex.LoadFile(src)
	if err != nil {
		return nil, err
	}
	if err := idx.Save(dst); err != nil {
		return nil, err
	}
	return idx, nil
}
