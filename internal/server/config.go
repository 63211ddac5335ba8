package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server  *ServerSettings `hcl:"server,block"`
	Match   *MatchSettings  `hcl:"match,block"`
	Timings *TimingSettings `hcl:"timings,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address    string `hcl:"address,optional"`
	Port       int    `hcl:"port,optional"`
	LogLevel   string `hcl:"log_level,optional"`
	Seed       int64  `hcl:"seed,optional"`        // 0 means seed from the current time
	HistoryDir string `hcl:"history_dir,optional"` // empty disables match archival
}

// MatchSettings defines the rule parameters applied to every room
type MatchSettings struct {
	Overs        int `hcl:"overs,optional"`
	BallsPerOver int `hcl:"balls_per_over,optional"`
	MaxWickets   int `hcl:"max_wickets,optional"`
}

// TimingSettings defines the pacing of a match in seconds
type TimingSettings struct {
	BallTimeoutSeconds  int `hcl:"ball_timeout_seconds,optional"`
	ResultDelaySeconds  int `hcl:"result_delay_seconds,optional"`
	NextBallSeconds     int `hcl:"next_ball_seconds,optional"`
	TossDelaySeconds    int `hcl:"toss_delay_seconds,optional"`
	InningsBreakSeconds int `hcl:"innings_break_seconds,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadServerConfig loads server configuration from HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills in zero values after decoding
func (c *ServerConfig) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Match == nil {
		c.Match = &MatchSettings{}
	}
	if c.Timings == nil {
		c.Timings = &TimingSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	def := game.DefaultMatchConfig()
	if c.Match.Overs == 0 {
		c.Match.Overs = def.Overs
	}
	if c.Match.BallsPerOver == 0 {
		c.Match.BallsPerOver = def.BallsPerOver
	}
	if c.Match.MaxWickets == 0 {
		c.Match.MaxWickets = def.MaxWickets
	}

	t := game.DefaultTimings()
	if c.Timings.BallTimeoutSeconds == 0 {
		c.Timings.BallTimeoutSeconds = int(t.BallTimeout / time.Second)
	}
	if c.Timings.ResultDelaySeconds == 0 {
		c.Timings.ResultDelaySeconds = int(t.ResultDelay / time.Second)
	}
	if c.Timings.NextBallSeconds == 0 {
		c.Timings.NextBallSeconds = int(t.NextBallDelay / time.Second)
	}
	if c.Timings.TossDelaySeconds == 0 {
		c.Timings.TossDelaySeconds = int(t.TossDelay / time.Second)
	}
	if c.Timings.InningsBreakSeconds == 0 {
		c.Timings.InningsBreakSeconds = int(t.InningsBreak / time.Second)
	}
}

// Validate checks configuration consistency
func (c *ServerConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if err := c.MatchConfig().Validate(); err != nil {
		return fmt.Errorf("invalid match block: %w", err)
	}
	if c.Timings.BallTimeoutSeconds <= 0 {
		return fmt.Errorf("ball timeout must be positive, got %d", c.Timings.BallTimeoutSeconds)
	}
	return nil
}

// GetServerAddress returns the host:port string to bind to
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// MatchConfig converts the match block into engine rule parameters
func (c *ServerConfig) MatchConfig() game.MatchConfig {
	return game.MatchConfig{
		Overs:        c.Match.Overs,
		BallsPerOver: c.Match.BallsPerOver,
		MaxWickets:   c.Match.MaxWickets,
	}
}

// EngineTimings converts the timings block into engine delays
func (c *ServerConfig) EngineTimings() game.Timings {
	return game.Timings{
		BallTimeout:   time.Duration(c.Timings.BallTimeoutSeconds) * time.Second,
		ResultDelay:   time.Duration(c.Timings.ResultDelaySeconds) * time.Second,
		NextBallDelay: time.Duration(c.Timings.NextBallSeconds) * time.Second,
		TossDelay:     time.Duration(c.Timings.TossDelaySeconds) * time.Second,
		InningsBreak:  time.Duration(c.Timings.InningsBreakSeconds) * time.Second,
	}
}
