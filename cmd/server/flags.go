package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maynagashev/autojob/internal/config"
)

// Переменные окружения, которые дублируются флагами.
const (
	envConfigFile  = "CONFIG_FILE"
	envServerPort  = "SERVER_PORT"
	envDatabaseDSN = "DATABASE_DSN"
	envTLSCertFile = "TLS_CERT_FILE"
	envTLSKeyFile  = "TLS_KEY_FILE"
)

// flagValues хранит значения флагов командной строки. Пустое значение означает "не задан".
type flagValues struct {
	ConfigFile  string
	Port        string
	DatabaseDSN string
	CertFile    string
	KeyFile     string
}

// parseFlags разбирает аргументы командной строки.
func parseFlags(args []string) (*flagValues, error) {
	fv := &flagValues{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&fv.ConfigFile, "config", "",
		fmt.Sprintf("Путь к YAML-файлу конфигурации (env: %s)", envConfigFile))
	fs.StringVar(&fv.Port, "port", "",
		fmt.Sprintf("Порт HTTP-сервера (env: %s)", envServerPort))
	fs.StringVar(&fv.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	fs.StringVar(&fv.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	fs.StringVar(&fv.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("ошибка разбора флагов: %w", err)
	}

	if fv.ConfigFile == "" {
		fv.ConfigFile = os.Getenv(envConfigFile)
	}
	return fv, nil
}

// apply переносит заданные флаги в конфигурацию. Флаги важнее файла и окружения.
func (fv *flagValues) apply(cfg *config.Config) {
	if fv.Port != "" {
		cfg.Port = fv.Port
	}
	if fv.DatabaseDSN != "" {
		cfg.DatabaseDSN = fv.DatabaseDSN
	}
	if fv.CertFile != "" {
		cfg.CertFile = fv.CertFile
	}
	if fv.KeyFile != "" {
		cfg.KeyFile = fv.KeyFile
	}
}

// loadConfig собирает итоговую конфигурацию: значения по умолчанию, файл, окружение, флаги.
func loadConfig(args []string) (*config.Config, error) {
	fv, err := parseFlags(args)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(fv.ConfigFile)
	if err != nil {
		return nil, err
	}

	fv.apply(cfg)
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
