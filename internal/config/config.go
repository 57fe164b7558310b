package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"required"`

	EnrollmentEncoding string `mapstructure:"ENROLLMENT_ENCODING" validate:"required"`
	CapacityFile       string `mapstructure:"CAPACITY_FILE" validate:"required"`
	RenamesFile        string `mapstructure:"RENAMES_FILE" validate:"required"`
	OutputFile         string `mapstructure:"OUTPUT_FILE" validate:"required"`
	LettersDir         string `mapstructure:"LETTERS_DIR" validate:"required"`
	SummaryFile        string `mapstructure:"SUMMARY_FILE"`
	HistoryExportDir   string `mapstructure:"HISTORY_EXPORT_DIR"`

	CyclePrefix   string `mapstructure:"CYCLE_PREFIX" validate:"required"`
	ArchivePrefix string `mapstructure:"ARCHIVE_PREFIX" validate:"required"`
	HistoryFile   string `mapstructure:"HISTORY_FILE" validate:"required"`

	Columns   Columns   `mapstructure:",squash"`
	Sentinels Sentinels `mapstructure:",squash"`
}

// Columns names the header fields of the enrollment and history files.
type Columns struct {
	Choices    []string `mapstructure:"COLUMN_CHOICES" validate:"len=3,dive,required"`
	Email      string   `mapstructure:"COLUMN_EMAIL" validate:"required"`
	Department string   `mapstructure:"COLUMN_DEPARTMENT" validate:"required"`
	Source     string   `mapstructure:"COLUMN_SOURCE" validate:"required"`
	FirstName  string   `mapstructure:"COLUMN_FIRST_NAME" validate:"required"`
	LastName   string   `mapstructure:"COLUMN_LAST_NAME" validate:"required"`
	Phone      string   `mapstructure:"COLUMN_PHONE"`
	Assigned   string   `mapstructure:"COLUMN_ASSIGNED" validate:"required"`
	Message    string   `mapstructure:"COLUMN_MESSAGE" validate:"required"`

	CapacityChoice string `mapstructure:"COLUMN_CAPACITY_CHOICE" validate:"required"`
	CapacityValue  string `mapstructure:"COLUMN_CAPACITY_VALUE" validate:"required"`
}

// Sentinels are the reserved labels with a special meaning during allocation.
type Sentinels struct {
	NoChoice   string `mapstructure:"NO_CHOICE" validate:"required"`
	Surprise   string `mapstructure:"SURPRISE_CHOICE" validate:"required,nefield=NoChoice"`
	Unassigned string `mapstructure:"UNASSIGNED" validate:"required"`
	TestSource string `mapstructure:"TEST_SOURCE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "prod")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENROLLMENT_ENCODING", "iso-8859-15")
	v.SetDefault("CAPACITY_FILE", "capacities.csv")
	v.SetDefault("RENAMES_FILE", "renames.csv")
	v.SetDefault("OUTPUT_FILE", "toewijzingen.csv")
	v.SetDefault("LETTERS_DIR", "mails")
	v.SetDefault("SUMMARY_FILE", "summary.yaml")
	v.SetDefault("HISTORY_EXPORT_DIR", "")

	v.SetDefault("CYCLE_PREFIX", "wisselwerking")
	v.SetDefault("ARCHIVE_PREFIX", "archief")
	v.SetDefault("HISTORY_FILE", "toewijzingen.csv")

	v.SetDefault("COLUMN_CHOICES", "eerste_keuze,tweede_keus,derde_keus")
	v.SetDefault("COLUMN_EMAIL", "email")
	v.SetDefault("COLUMN_DEPARTMENT", "afdeling")
	v.SetDefault("COLUMN_SOURCE", "bron")
	v.SetDefault("COLUMN_FIRST_NAME", "voornaam")
	v.SetDefault("COLUMN_LAST_NAME", "achternaam")
	v.SetDefault("COLUMN_PHONE", "telefoonnummer")
	v.SetDefault("COLUMN_ASSIGNED", "toegewezen")
	v.SetDefault("COLUMN_MESSAGE", "bericht")
	v.SetDefault("COLUMN_CAPACITY_CHOICE", "keuze")
	v.SetDefault("COLUMN_CAPACITY_VALUE", "aantal")

	v.SetDefault("NO_CHOICE", "Maak je keuze")
	v.SetDefault("SURPRISE_CHOICE", "Verras me!")
	v.SetDefault("UNASSIGNED", "**GEEN**")
	v.SetDefault("TEST_SOURCE", "test")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Columns.Choices = splitList(cfg.Columns.Choices)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no .env file or environment overrides exist.
func Default() Config {
	return Config{
		Env:                "prod",
		LogLevel:           "info",
		EnrollmentEncoding: "iso-8859-15",
		CapacityFile:       "capacities.csv",
		RenamesFile:        "renames.csv",
		OutputFile:         "toewijzingen.csv",
		LettersDir:         "mails",
		SummaryFile:        "summary.yaml",
		CyclePrefix:        "wisselwerking",
		ArchivePrefix:      "archief",
		HistoryFile:        "toewijzingen.csv",
		Columns: Columns{
			Choices:        []string{"eerste_keuze", "tweede_keus", "derde_keus"},
			Email:          "email",
			Department:     "afdeling",
			Source:         "bron",
			FirstName:      "voornaam",
			LastName:       "achternaam",
			Phone:          "telefoonnummer",
			Assigned:       "toegewezen",
			Message:        "bericht",
			CapacityChoice: "keuze",
			CapacityValue:  "aantal",
		},
		Sentinels: Sentinels{
			NoChoice:   "Maak je keuze",
			Surprise:   "Verras me!",
			Unassigned: "**GEEN**",
			TestSource: "test",
		},
	}
}

func Validate(cfg Config) error {
	return validator.New().Struct(cfg)
}

// splitList accepts both a parsed slice and a single comma separated entry,
// which is what viper yields for values coming from the environment.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
