package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Output          string `mapstructure:"output"`
	OutFile         string `mapstructure:"out_file"`
	Format          string `mapstructure:"format"`
	CollapseHyphens bool   `mapstructure:"collapse_hyphens"`
	LogLevel        string `mapstructure:"log_level"`
	DSN             string `mapstructure:"dsn"`
	Driver          string `mapstructure:"driver"`
	Table           string `mapstructure:"table"`
	ColorKey        string `mapstructure:"color_key"`
	ColorTitle      string `mapstructure:"color_title"`
	ColorDim        string `mapstructure:"color_dim"`
	ColumnKey       int    `mapstructure:"column_key"`
	ColumnTitle     int    `mapstructure:"column_title"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("output", "print")
	viper.SetDefault("out_file", "")
	viper.SetDefault("format", "bibtex")
	viper.SetDefault("collapse_hyphens", true) // "--" -> "-" in serialized output
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("dsn", "")
	viper.SetDefault("driver", "pgx") // pgx or postgres
	viper.SetDefault("table", "citations")
	viper.SetDefault("color_key", "36")   // Cyan
	viper.SetDefault("color_title", "32") // Green
	viper.SetDefault("color_dim", "90")   // Gray
	viper.SetDefault("column_key", 32)
	viper.SetDefault("column_title", 60)

	viper.SetConfigName("bibkit")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "bibkit"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BIBKIT")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// GetOutput returns the output mode: print, copy or file
func GetOutput() string {
	return viper.GetString("output")
}

// GetOutFile returns the target path for the file output mode, with tilde expansion
func GetOutFile() string {
	return expandTilde(viper.GetString("out_file"))
}

// GetFormat returns the record format: bibtex, json or yaml
func GetFormat() string {
	return viper.GetString("format")
}

// GetCollapseHyphens returns whether serialized output collapses "--" to "-"
func GetCollapseHyphens() bool {
	return viper.GetBool("collapse_hyphens")
}

// GetLogLevel returns the log level
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetDSN returns the database connection string used by import
func GetDSN() string {
	return viper.GetString("dsn")
}

// GetDriver returns the database/sql driver name
func GetDriver() string {
	return viper.GetString("driver")
}

// GetTable returns the table that receives imported records
func GetTable() string {
	return viper.GetString("table")
}

// GetColorKey returns ANSI color code for citation keys
func GetColorKey() string {
	return viper.GetString("color_key")
}

// GetColorTitle returns ANSI color code for titles
func GetColorTitle() string {
	return viper.GetString("color_title")
}

// GetColorDim returns ANSI color code for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// GetColumnKey returns max citation key column width
func GetColumnKey() int {
	return viper.GetInt("column_key")
}

// GetColumnTitle returns max title column width
func GetColumnTitle() int {
	return viper.GetInt("column_title")
}

// SetOutput sets output mode at runtime
func SetOutput(mode string) {
	viper.Set("output", mode)
	C.Output = mode
}

// SetOutFile sets the output file at runtime
func SetOutFile(path string) {
	viper.Set("out_file", path)
	C.OutFile = path
}

// SetFormat sets the record format at runtime
func SetFormat(format string) {
	viper.Set("format", format)
	C.Format = format
}

// SetCollapseHyphens toggles "--" collapsing at runtime
func SetCollapseHyphens(on bool) {
	viper.Set("collapse_hyphens", on)
	C.CollapseHyphens = on
}

// ExpandPath expands a leading ~ in user-supplied paths
func ExpandPath(path string) string {
	return expandTilde(path)
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
