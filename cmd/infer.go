package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

var inferCmd = &cobra.Command{
	Use:   "infer [items...]",
	Short: "Map tokens to indices, or indices back to tokens",
	Long: `Maps each argument through the saved vocabulary and prints the results on
one line. Unknown tokens map to the default token's index. With --decode the
arguments are indices and unassigned ones are an error. With no arguments,
each line of stdin is a whitespace-separated sample and produces one line of
output.`,
	RunE: runInfer,
}

func init() {
	rootCmd.AddCommand(inferCmd)

	inferCmd.Flags().Bool("decode", false, "treat items as indices and print their tokens")
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	decode, _ := cmd.Flags().GetBool("decode")

	v, err := openVocab(cfg, false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return inferLine(out, v, args, decode)
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if err := inferLine(out, v, strings.Fields(sc.Text()), decode); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}

func inferLine(w io.Writer, v *vocab.Vocabulary, items []string, decode bool) error {
	var out []string
	if decode {
		indices := make([]int, len(items))
		for i, s := range items {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("parsing index %q: %w", s, err)
			}
			indices[i] = n
		}
		toks, err := v.InferIndices(indices)
		if err != nil {
			return err
		}
		out = toks
	} else {
		for _, idx := range v.InferTokens(items) {
			out = append(out, strconv.Itoa(idx))
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(out, " "))
	return err
}
