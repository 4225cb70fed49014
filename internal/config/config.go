package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNoConnection is returned when no connection profile can be selected.
var ErrNoConnection = errors.New("no connection configured")

// Config represents the application configuration.
type Config struct {
	Connections []Connection `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences  `mapstructure:"preferences" yaml:"preferences"`
	Report      Report       `mapstructure:"report" yaml:"report"`
}

// Connection represents a saved database connection profile.
type Connection struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string `mapstructure:"default_connection" yaml:"default_connection"`
	LogLevel          string `mapstructure:"log_level" yaml:"log_level"`
}

// Report holds report output settings.
type Report struct {
	Catalog       string `mapstructure:"catalog" yaml:"catalog"`
	PreviewLength int    `mapstructure:"preview_length" yaml:"preview_length"`
}

// Default ports per driver.
const (
	postgresPort = 5432
	mysqlPort    = 3306
)

// IsMySQL reports whether the profile targets MySQL.
func (c Connection) IsMySQL() bool {
	return strings.EqualFold(c.Driver, "mysql")
}

func (c Connection) port() int {
	if c.Port > 0 {
		return c.Port
	}
	if c.IsMySQL() {
		return mysqlPort
	}
	return postgresPort
}

// DSN builds a driver-specific connection string from the profile.
func (c Connection) DSN() string {
	if c.IsMySQL() {
		cfg := mysql.NewConfig()
		cfg.User = c.Username
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
		cfg.DBName = c.Database
		cfg.ParseTime = true
		return cfg.FormatDSN()
	}

	u := url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.port())),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.SSLMode)
	}
	return u.String()
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return s
}

// ParseDSN parses a postgres://, postgresql:// or mysql:// URL into a
// Connection.
func ParseDSN(dsn string) (Connection, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid DSN: %w", err)
	}

	conn := Connection{
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		conn.Driver = "postgres"
	case "mysql":
		conn.Driver = "mysql"
	default:
		return Connection{}, fmt.Errorf("invalid DSN: unsupported scheme %q", u.Scheme)
	}

	if u.User != nil {
		conn.Username = u.User.Username()
		if p, ok := u.User.Password(); ok {
			conn.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		conn.Port, _ = strconv.Atoi(portStr)
	}
	conn.Port = conn.port()

	// Auto-generate a name
	conn.Name = fmt.Sprintf("%s-%s-%d-%s", conn.Driver, conn.Host, conn.Port, conn.Database)

	return conn, nil
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	_, ok := cfg.Lookup(name)
	return ok
}

// Lookup returns the connection with the given name.
func (cfg *Config) Lookup(name string) (*Connection, bool) {
	for i := range cfg.Connections {
		if cfg.Connections[i].Name == name {
			return &cfg.Connections[i], true
		}
	}
	return nil, false
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		cfg.Connections = append(cfg.Connections, conn)
	}
}
