// Copyright © 2020 Dmitry Mozzherin <dmozzherin@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/gnsys"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//go:embed drugref.yaml
var configText string

var (
	opts []config.Option
)

type cfgData struct {
	InputDir         string
	Store            string
	JobsNum          int
	BatchSize        int
	MyHost           string
	MyPort           int
	MyUser           string
	MyPass           string
	MyDB             string
	PgHost           string
	PgPort           int
	PgUser           string
	PgPass           string
	PgDB             string
	LegacyATCPattern bool
	Romanize         bool
	LogLevel         string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drugref",
	Short: "Drug reference catalog: ATC codes, drug names, essential medicine lists",
	Long: `drugref keeps reference tables of a drug catalog: ATC classification
codes, ATC-keyed product listings, Chinese and international drug names, the
National Essential Medicine List and the Basic National Medical Insurance
Essential Medicine List.

Data are kept either in an embedded key-value store or in PostgreSQL. The
legacy MySQL catalog can be dumped to CSV files and rebuilt into a new
store.`,
	Run: func(cmd *cobra.Command, args []string) {
		version, err := cmd.Flags().GetBool("version")
		if err != nil {
			slog.Error("Cannot get flag", "error", err)
			os.Exit(1)
		}
		if version {
			fmt.Printf("\nversion: %s\nbuild: %s\n\n", drugref.Version, drugref.Build)
			os.Exit(0)
		}

		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().BoolP("version", "V", false, "Returns version and build date")
	rootCmd.PersistentFlags().StringP("store", "s", "",
		"storage engine: kv or postgres")
	rootCmd.PersistentFlags().Bool("legacy-atc", false,
		"validate ATC codes with the legacy pattern")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	var homeDir, cfgDir string
	configFile := "drugref"

	// .env is optional
	_ = godotenv.Load()

	// Find home directory.
	homeDir, err = homedir.Dir()
	if err != nil {
		slog.Error("Cannot find home dir", "error", err)
		os.Exit(1)
	}
	cfgDir = filepath.Join(homeDir, ".config")

	viper.AddConfigPath(cfgDir)
	viper.SetConfigName(configFile)
	viper.SetEnvPrefix("DRUGREF")
	for _, k := range configKeys() {
		_ = viper.BindEnv(k)
	}
	_ = viper.BindPFlag("Store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("LegacyATCPattern",
		rootCmd.PersistentFlags().Lookup("legacy-atc"))

	configPath := filepath.Join(cfgDir, fmt.Sprintf("%s.yaml", configFile))
	touchConfigFile(configPath)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Config file drugref.yaml not found", "error", err)
		os.Exit(1)
	}
	getOpts()
}

// configKeys returns the keys of the configuration file.
func configKeys() []string {
	return []string{
		"InputDir", "Store", "JobsNum", "BatchSize",
		"MyHost", "MyPort", "MyUser", "MyPass", "MyDB",
		"PgHost", "PgPort", "PgUser", "PgPass", "PgDB",
		"LegacyATCPattern", "Romanize", "LogLevel",
	}
}

// getOpts imports data from the configuration file. Some of the settings can
// be overriden by command line flags or environment variables.
func getOpts() []config.Option {
	cfg := cfgData{}
	err := viper.Unmarshal(&cfg)
	if err != nil {
		slog.Error("Cannot unmarshal config file", "error", err)
	}
	setLogger(cfg.LogLevel)

	if cfg.InputDir != "" {
		opts = append(opts, config.OptInputDir(cfg.InputDir))
	}
	if cfg.Store != "" {
		opts = append(opts, config.OptStore(config.StoreType(cfg.Store)))
	}
	if cfg.JobsNum != 0 {
		opts = append(opts, config.OptJobsNum(cfg.JobsNum))
	}
	if cfg.BatchSize != 0 {
		opts = append(opts, config.OptBatchSize(cfg.BatchSize))
	}
	if cfg.MyHost != "" {
		opts = append(opts, config.OptMyHost(cfg.MyHost))
	}
	if cfg.MyPort != 0 {
		opts = append(opts, config.OptMyPort(cfg.MyPort))
	}
	if cfg.MyUser != "" {
		opts = append(opts, config.OptMyUser(cfg.MyUser))
	}
	if cfg.MyPass != "" {
		opts = append(opts, config.OptMyPass(cfg.MyPass))
	}
	if cfg.MyDB != "" {
		opts = append(opts, config.OptMyDB(cfg.MyDB))
	}
	if cfg.PgHost != "" {
		opts = append(opts, config.OptPgHost(cfg.PgHost))
	}
	if cfg.PgPort != 0 {
		opts = append(opts, config.OptPgPort(cfg.PgPort))
	}
	if cfg.PgUser != "" {
		opts = append(opts, config.OptPgUser(cfg.PgUser))
	}
	if cfg.PgPass != "" {
		opts = append(opts, config.OptPgPass(cfg.PgPass))
	}
	if cfg.PgDB != "" {
		opts = append(opts, config.OptPgDB(cfg.PgDB))
	}
	opts = append(opts,
		config.OptLegacyATCPattern(cfg.LegacyATCPattern),
		config.OptRomanize(cfg.Romanize),
	)
	return opts
}

// setLogger installs a colored console handler.
func setLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	})
	slog.SetDefault(slog.New(h))
}

// touchConfigFile checks if config file exists, and if not, it gets created.
func touchConfigFile(configPath string) {
	fileExists, _ := gnsys.FileExists(configPath)
	if fileExists {
		return
	}

	slog.Info("Creating config file", "path", configPath)
	createConfig(configPath)
}

// createConfig creates config file.
func createConfig(path string) {
	err := gnsys.MakeDir(filepath.Dir(path))
	if err != nil {
		slog.Error("Cannot create config dir", "error", err)
		os.Exit(1)
	}

	err = os.WriteFile(path, []byte(configText), 0644)
	if err != nil {
		slog.Error("Cannot write to config file", "error", err)
		os.Exit(1)
	}
}
