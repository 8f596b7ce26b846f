package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamweave/streamweave/assistant/internal/anomaly"
	"github.com/streamweave/streamweave/assistant/internal/config"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

var flagThresholds string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <original.json> <transformed.json>",
	Short: "Run the data-quality classifier over preview samples",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var original models.SamplePreview
		if err := readJSON(args[0], &original); err != nil {
			return err
		}
		var transformed models.TransformPreview
		if err := readJSON(args[1], &transformed); err != nil {
			return err
		}

		thresholdsPath := flagThresholds
		if thresholdsPath == "" {
			thresholdsPath = config.Load().ThresholdsPath
		}
		th, err := anomaly.LoadThresholds(thresholdsPath)
		if err != nil {
			return err
		}

		result := anomaly.Analyze(original, transformed, th)
		for _, finding := range result.Anomalies {
			fmt.Printf("[%s] %s: %s\n", finding.Severity, finding.Type, finding.Message)
		}
		fmt.Printf("\n%d findings (%d errors, %d warnings, %d info)\n",
			result.Summary.Total, result.Summary.Errors, result.Summary.Warnings, result.Summary.Info)

		if !result.CanProceed {
			fmt.Println("Verdict: BLOCKED. Fix the errors before creating this pipeline.")
			os.Exit(1)
		}
		fmt.Println("Verdict: OK to proceed.")
		return nil
	},
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&flagThresholds, "thresholds", "", "YAML thresholds file")
	rootCmd.AddCommand(analyzeCmd)
}
