package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/encoding"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [values]",
	Short: "Convert encoding values to transport text",
	Long: `Convert 128 comma-separated numbers to the base64 transport text accepted
by the API. Values are read from the argument or, when absent, from stdin.
With --decode the input is transport text and the values are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().Bool("decode", false, "Decode transport text to values")
}

// parseValues parses comma-separated numbers.
func parseValues(s string) (encoding.Encoding, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	values := make(encoding.Encoding, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// encodingFromArgs returns transport text from the positional argument or the
// --values flag.
func encodingFromArgs(cmd *cobra.Command, args []string) (string, error) {
	values := mustGetString(cmd, "values")
	switch {
	case values != "" && len(args) > 0:
		return "", errors.New("pass either an encoding argument or --values, not both")
	case values != "":
		parsed, err := parseValues(values)
		if err != nil {
			return "", err
		}
		return encoding.Encode(parsed)
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("an encoding argument or --values is required")
	}
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "decode") {
		values, err := encoding.Check(input)
		if err != nil {
			return err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		fmt.Println(strings.Join(parts, ","))
		return nil
	}

	values, err := parseValues(input)
	if err != nil {
		return err
	}
	if !values.InRange() {
		return fmt.Errorf("values must lie in [%g, %g]", encoding.MinValue, encoding.MaxValue)
	}
	text, err := encoding.Encode(values)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
