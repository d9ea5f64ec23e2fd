package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"blmne/pkg/config"
	"blmne/pkg/errs"
	"blmne/pkg/files"
	"blmne/pkg/inspect"
	"blmne/pkg/logger"
	"blmne/pkg/meg"
	"blmne/pkg/plot"
	"blmne/pkg/report"
)

// ReportFile is the HTML report prepare writes into the report directory.
const ReportFile = "report.html"

type cli struct {
	out      io.Writer
	settings *config.Settings
	runID    string

	settingsFile string
	logLevel     string
	logFormat    string
	configPath   string
	productPath  string
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "blmne",
		Short:         "Shared helpers for neuroimaging apps",
		Long:          `blmne loads app configuration, prepares output directories, copies optional inputs and maintains the product.json report read by the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.settingsFile, "settings", "", "optional settings file (yaml, json or toml)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
	flags.StringVarP(&c.configPath, "config", "c", "", "app config.json (default from settings)")
	flags.StringVarP(&c.productPath, "product", "p", "", "product.json path (default from settings)")

	root.AddCommand(
		c.prepareCmd(),
		c.productCmd(),
		c.validateInputCmd(),
		c.channelsCmd(),
	)
	return root
}

func (c *cli) setup() error {
	s, err := config.LoadSettings(c.settingsFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		s.LogLevel = c.logLevel
	}
	if c.logFormat != "" {
		s.LogFormat = c.logFormat
	}
	if c.configPath != "" {
		s.ConfigPath = c.configPath
	}
	if c.productPath != "" {
		s.Product = c.productPath
	}
	if !logger.ValidLevel(s.LogLevel) {
		return errs.Validation("log level %q must be one of debug, info, warn, error", s.LogLevel)
	}
	s.ApplyLogging()
	c.settings = s
	c.runID = uuid.NewString()
	logger.SetRunID(c.runID)
	logger.Debugf("settings: %s", s)
	return nil
}

func (c *cli) product() *report.Product {
	return report.NewProduct(c.settings.Product)
}

func (c *cli) prepareCmd() *cobra.Command {
	var infoPath string
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Load config, create output dirs, copy optional files and start product.json",
		Long: `prepare runs the common start-of-app steps: it loads config.json, creates the
output directories, copies the optional inputs under their canonical names,
initializes product.json and records which optional inputs were supplied.
With --info, the recording's bads are updated from a supplied channels.tsv
and a summary of the recording is added to the product.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.prepare(infoPath)
		},
	}
	cmd.Flags().StringVar(&infoPath, "info", "", "measurement-info JSON of the input recording")
	return cmd
}

func (c *cli) prepare(infoPath string) error {
	s := c.settings
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		return err
	}
	if err := files.EnsureOutputDirs(s.OutputDirs()...); err != nil {
		return err
	}
	desc, err := files.ReadAndCopyOptionalFiles(cfg, s.OutDir)
	if err != nil {
		return err
	}

	product := c.product()
	if err := product.Create(map[string]any{
		"run_id":     c.runID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	rep := report.NewHTMLReport("Optional inputs")
	messages := report.MessageOptionalFilesInReports(rep, desc, s.OutDir)
	for _, role := range files.Roles {
		if err := product.AddInfo(messages[report.ReportKey(role)], report.SeverityInfo); err != nil {
			return err
		}
	}
	for _, role := range desc.Missing {
		msg := fmt.Sprintf("Configured %s file was not found and was skipped", role.Label())
		if err := product.AddInfo(msg, report.SeverityWarning); err != nil {
			return err
		}
	}

	if infoPath != "" {
		rec, err := meg.ReadRecordingJSON(infoPath)
		if err != nil {
			return err
		}
		warning, err := inspect.ApplyOptionalChannels(rec, desc)
		if err != nil {
			return err
		}
		if warning != "" {
			rep.AddNote("Bad channels", warning)
			if err := product.AddInfo(warning, report.SeverityWarning); err != nil {
				return err
			}
		}
		if err := product.AddRawInfo(rec); err != nil {
			return err
		}
	}

	if err := rep.Save(filepath.Join(s.ReportDir, ReportFile)); err != nil {
		return err
	}
	logger.Infof("prepared run %s: %d optional file(s) copied to %s", c.runID, len(desc.Present()), s.OutDir)
	return c.print("json", messages)
}

func (c *cli) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Create and append to product.json",
	}
	cmd.AddCommand(
		c.productInitCmd(),
		c.productInfoCmd(),
		c.productImageCmd(),
		c.productPlotlyCmd(),
		c.productHeadPointsCmd(),
		c.productShowCmd(),
	)
	return cmd
}

func (c *cli) productInitCmd() *cobra.Command {
	var fields map[string]string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty product.json, replacing any existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			unstructured := make(map[string]any, len(fields))
			for k, v := range fields {
				unstructured[k] = v
			}
			return c.product().Create(unstructured)
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "extra root field as key=value (repeatable)")
	return cmd
}

func (c *cli) productInfoCmd() *cobra.Command {
	var severity string
	cmd := &cobra.Command{
		Use:   "info MESSAGE",
		Short: "Append a text message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sev, err := report.ParseSeverity(severity)
			if err != nil {
				return err
			}
			return c.product().AddInfo(args[0], sev)
		},
	}
	cmd.Flags().StringVarP(&severity, "severity", "s", string(report.SeverityInfo), "info, success, warning, error or danger")
	return cmd
}

func (c *cli) productImageCmd() *cobra.Command {
	var title, desc string
	cmd := &cobra.Command{
		Use:   "image PNG",
		Short: "Embed a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			return c.product().AddImage(args[0], title, desc)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "image title (default: file name)")
	cmd.Flags().StringVar(&desc, "desc", "", "image description")
	return cmd
}

func (c *cli) productPlotlyCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "plotly JSON",
		Short: "Append an interactive plot from a {data, layout} JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errs.FromOS(err, "reading plotly payload %s", args[0])
			}
			var payload map[string]any
			if err := json.Unmarshal(raw, &payload); err != nil {
				return errs.Parse("plotly payload %s: %v", args[0], err)
			}
			return c.product().AddPlotly(payload, title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "plot title")
	return cmd
}

func (c *cli) productHeadPointsCmd() *cobra.Command {
	var htmlPath string
	var screenshot bool
	cmd := &cobra.Command{
		Use:   "headpoints INFO_JSON",
		Short: "Append the recording's digitized head points as a 3D plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := meg.ReadRecordingJSON(args[0])
			if err != nil {
				return err
			}
			var display io.Writer
			if htmlPath != "" {
				f, err := os.Create(htmlPath)
				if err != nil {
					return errs.FromOS(err, "creating %s", htmlPath)
				}
				defer f.Close()
				display = f
			}
			scatter, err := report.PlotDigitizedHeadPoints3D(rec, display)
			if err != nil {
				return err
			}
			product := c.product()
			if screenshot {
				img, err := captureChart(cmd.Context(), scatter)
				if err != nil {
					return err
				}
				return product.AddBase64Image(img.Base64, report.HeadPointsTitle, "")
			}
			payload, err := report.DigitizationPlotly(rec)
			if err != nil {
				return err
			}
			return product.AddPlotly(payload, report.HeadPointsTitle)
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the interactive chart page to this file")
	cmd.Flags().BoolVar(&screenshot, "screenshot", false, "embed a headless-browser PNG instead of a plotly entry")
	return cmd
}

func captureChart(ctx context.Context, chart components.Charter) (plot.ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, plot.ScreenshotTimeout+10*time.Second)
	defer cancel()
	return plot.ScreenshotChart(ctx, 900, 700, chart)
}

func (c *cli) productShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the entries of product.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.product().Entries()
			if err != nil {
				return err
			}
			type shown struct {
				Type    string `json:"type" yaml:"type"`
				MsgType string `json:"msg_type,omitempty" yaml:"msg_type,omitempty"`
				Msg     string `json:"msg,omitempty" yaml:"msg,omitempty"`
				Name    string `json:"name,omitempty" yaml:"name,omitempty"`
				Size    int    `json:"value_bytes,omitempty" yaml:"value_bytes,omitempty"`
			}
			out := make([]shown, 0, len(entries))
			for _, e := range entries {
				out = append(out, shown{Type: e.Type, MsgType: string(e.MsgType), Msg: e.Msg, Name: e.Name, Size: len(e.Value)})
			}
			return c.print(format, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func (c *cli) validateInputCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate-input PATH",
		Short: "Check that an input file holds the expected kind of data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := meg.ParseKind(kind)
			if err != nil {
				return err
			}
			if err := inspect.ValidateInputData(args[0], expected); err != nil {
				return err
			}
			logger.Infof("%s holds %s data", args[0], expected)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(meg.KindRaw), "expected kind: raw, epochs, evoked or ica")
	return cmd
}

func (c *cli) channelsCmd() *cobra.Command {
	var format, channelsFile string
	var detail bool
	cmd := &cobra.Command{
		Use:   "channels INFO_JSON",
		Short: "Summarize the channel types of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := meg.ReadRecordingJSON(args[0])
			if err != nil {
				return err
			}
			if channelsFile != "" {
				warning, err := inspect.UpdateBadsFromChannelsFile(rec, channelsFile)
				if err != nil {
					return err
				}
				if warning != "" {
					logger.Warnf("%s", warning)
				}
			}
			if detail {
				return c.print(format, inspect.ChannelTypesDetail(rec))
			}
			summary, err := report.SummarizeRaw(rec)
			if err != nil {
				return err
			}
			return c.print(format, summary)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&channelsFile, "channels-file", "", "channels.tsv whose bad channels replace the recording's")
	cmd.Flags().BoolVar(&detail, "detail", false, "list channel names per type")
	return cmd
}

func (c *cli) print(format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errs.IO("writing output: %v", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errs.IO("writing output: %v", err)
		}
		return enc.Close()
	}
	return errs.Validation("output format %q must be json or yaml", format)
}
