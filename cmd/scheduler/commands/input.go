package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/benvon/smart-schedule/internal/input"
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/spf13/cobra"
)

// inputFlags are shared by every command that reads a schedule request
type inputFlags struct {
	path      string
	format    string
	maxHours  float64
	startDate string
	pretty    bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "input", "i", "", "Read the request from a .json, .yaml or .yml file")
	cmd.Flags().StringVar(&f.format, "format", "", "Input format for stdin or the argument: json or yaml (default json)")
	cmd.Flags().Float64Var(&f.maxHours, "max-hours", 0, "Override maxHoursPerDay")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Schedule from this date (YYYY-MM-DD) instead of today")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Indent the result document")
}

// readRequest decodes the request from the positional argument, --input or stdin,
// in that order of preference, then applies the flag overrides.
func (f *inputFlags) readRequest(cmd *cobra.Command, args []string) (*models.ScheduleRequest, error) {
	if len(args) > 0 && f.path != "" {
		return nil, errors.New("pass the request either as an argument or with --input, not both")
	}

	format, err := f.inputFormat()
	if err != nil {
		return nil, err
	}

	var req *models.ScheduleRequest
	switch {
	case len(args) > 0:
		req, err = input.Decode([]byte(args[0]), format)
	case f.path != "":
		data, readErr := os.ReadFile(f.path)
		if readErr != nil {
			return nil, fmt.Errorf("read input: %w", readErr)
		}
		if f.format == "" {
			format = input.FormatFromPath(f.path)
		}
		req, err = input.Decode(data, format)
	default:
		req, err = input.DecodeReader(cmd.InOrStdin(), format)
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("max-hours") {
		hours := f.maxHours
		req.MaxHoursPerDay = &hours
	}
	if f.startDate != "" {
		start, err := models.ParseDate(f.startDate)
		if err != nil {
			return nil, &models.ValidationError{TaskIndex: -1, Field: "start_date", Reason: "must be a date in YYYY-MM-DD format"}
		}
		req.StartDate = &start
	}
	return req, nil
}

func (f *inputFlags) inputFormat() (input.Format, error) {
	switch f.format {
	case "", "json":
		return input.FormatJSON, nil
	case "yaml", "yml":
		return input.FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported --format %q (want json or yaml)", f.format)
	}
}
