package config

import (
	"fmt"
	"strconv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	DefaultHistoryLimit = 10
)

// DatabaseConfig describes the conversation history store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver" split_words:"true"`
	Host         string `yaml:"host" split_words:"true"`
	Port         int    `yaml:"port" split_words:"true"`
	User         string `yaml:"user" split_words:"true"`
	Password     string `yaml:"password" split_words:"true"`
	Name         string `yaml:"name" split_words:"true"`
	Path         string `yaml:"path" split_words:"true"`
	HistoryLimit int    `yaml:"history_limit" split_words:"true"`
}

func (c *DatabaseConfig) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMySQL
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.Name == "" {
		c.Name = "acu_assistant_db"
	}
	if c.Path == "" {
		c.Path = "courier.db"
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
}

// DSN builds the driver-specific data source name.
func (c DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host+":"+strconv.Itoa(c.Port), c.Name)
}

// Require reports what is missing for a database connection.
func (c DatabaseConfig) Require() error {
	var errs []string
	if c.Driver == DriverMySQL && c.User == "" {
		errs = append(errs, "database.user is required for mysql")
	}
	return joinErrors("database", errs)
}
