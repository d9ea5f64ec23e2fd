package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"blmne/pkg/errs"
	"blmne/pkg/logger"
)

// EnvPrefix is prepended to every settings key when read from the environment,
// e.g. BLMNE_OUT_DIR.
const EnvPrefix = "BLMNE"

// Settings are the runtime knobs shared by every app: where things go and how
// they are rendered. They are distinct from the per-run config.json.
type Settings struct {
	ConfigPath string  `mapstructure:"config"`
	LogLevel   string  `mapstructure:"log_level"`
	LogFormat  string  `mapstructure:"log_format"`
	OutDir     string  `mapstructure:"out_dir"`
	FigsDir    string  `mapstructure:"figs_dir"`
	ReportDir  string  `mapstructure:"report_dir"`
	Product    string  `mapstructure:"product"`
	FigureDPI  float64 `mapstructure:"figure_dpi"`
	Base64DPI  float64 `mapstructure:"base64_dpi"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "config.json")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("out_dir", "out_dir")
	v.SetDefault("figs_dir", "out_figs")
	v.SetDefault("report_dir", "out_report")
	v.SetDefault("product", "product.json")
	v.SetDefault("figure_dpi", 150)
	v.SetDefault("base64_dpi", 100)
}

// LoadSettings resolves settings from defaults, an optional settings file
// (any format viper reads) and BLMNE_* environment variables, in increasing
// order of precedence.
func LoadSettings(file string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.FromOS(err, "reading settings file %s", file)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, errs.Parse("parsing settings failed: %v", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if !logger.ValidLevel(s.LogLevel) {
		return errs.Validation("settings.log_level %q must be one of debug, info, warn, error", s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return errs.Validation("settings.log_format %q must be text or json", s.LogFormat)
	}
	if s.FigureDPI <= 0 {
		return errs.Validation("settings.figure_dpi must be > 0")
	}
	if s.Base64DPI <= 0 {
		return errs.Validation("settings.base64_dpi must be > 0")
	}
	for key, dir := range map[string]string{"out_dir": s.OutDir, "figs_dir": s.FigsDir, "report_dir": s.ReportDir, "product": s.Product} {
		if strings.TrimSpace(dir) == "" {
			return errs.Validation("settings.%s cannot be empty", key)
		}
	}
	return nil
}

// OutputDirs lists the conventional output directories in creation order.
func (s *Settings) OutputDirs() []string {
	return []string{s.OutDir, s.FigsDir, s.ReportDir}
}

// ApplyLogging pushes the logging settings to the process logger.
func (s *Settings) ApplyLogging() {
	logger.SetLevel(s.LogLevel)
	logger.SetFormat(s.LogFormat)
}

func (s *Settings) String() string {
	return fmt.Sprintf("config=%s out_dir=%s figs_dir=%s report_dir=%s product=%s dpi=%g/%g",
		s.ConfigPath, s.OutDir, s.FigsDir, s.ReportDir, s.Product, s.FigureDPI, s.Base64DPI)
}
