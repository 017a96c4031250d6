package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"github.com/os303/progname/pkg/config"
)

type jsonResult struct {
	Variable    string `json:"variable"`
	ProgramName string `json:"program_name"`
	Prefix      string `json:"prefix"`
	Version     string `json:"version"`
	Revision    string `json:"revision"`
	Dirty       bool   `json:"dirty"`
	Fallback    bool   `json:"fallback"`
	Manifest    string `json:"manifest,omitempty"`
}

// Render prints res to w in the given output format. text is the bare name,
// env a dotenv assignment and json a single object.
func Render(w io.Writer, format string, res Result) error {
	switch format {
	case config.FormatEnv:
		line, err := godotenv.Marshal(map[string]string{res.Variable: res.Name.String()})
		if err != nil {
			return fmt.Errorf("render env: %w", err)
		}
		_, err = fmt.Fprintln(w, line)
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonResult{
			Variable:    res.Variable,
			ProgramName: res.Name.String(),
			Prefix:      res.Name.Prefix,
			Version:     res.Name.Version,
			Revision:    res.Name.Revision,
			Dirty:       res.Name.Dirty,
			Fallback:    res.Fallback,
			Manifest:    res.Manifest,
		})
	case config.FormatText, "":
		_, err := fmt.Fprintln(w, res.Name.String())
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
