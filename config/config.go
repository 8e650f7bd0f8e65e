package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// FallbackTokenSecret signs tokens when no secret is configured.
// Anything signed with it can be forged by whoever reads this file.
const FallbackTokenSecret = "fallback_secret"

type Config struct {
	Addr            string
	DBUrl           string
	TokenSecret     string
	TokenTTL        time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
	CORSOrigins     []string
	Debug           bool
}

// environment holds the values read from the process environment (or .env),
// which become the defaults of the command line flags.
type environment struct {
	Host              string `env:"HOST,default=0.0.0.0"`
	Port              uint   `env:"PORT,default=3000"`
	DBUrl             string `env:"DATABASE_URL,default=qforms.sqlite"`
	TokenSecret       string `env:"JWT_SECRET"`
	TokenTTL          string `env:"JWT_EXPIRES_IN,default=1d"`
	RateLimitWindowMS uint   `env:"RATE_LIMIT_WINDOW_MS,default=900000"`
	RateLimitMax      uint   `env:"RATE_LIMIT_MAX,default=100"`
	CORSOrigins       string `env:"CORS_ORIGINS,default=*"`
	AppEnv            string `env:"APP_ENV,default=production"`
}

func ParseFlags() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return parse(os.Args[0], os.Args[1:])
}

func parse(name string, args []string) (cfg Config, err error) {
	var env environment
	err = envdecode.Decode(&env)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("config.env: %w", err)
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	var host string
	flags.StringVar(&host, "host", env.Host, "listen host name")
	var port uint
	flags.UintVar(&port, "port", env.Port, "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", env.DBUrl, "path to SQLite3 DB file")
	flags.StringVar(&cfg.TokenSecret, "token-secret", env.TokenSecret, "secret key for token signing")
	var ttl string
	flags.StringVar(&ttl, "token-ttl", env.TokenTTL, "token lifetime (e.g. 1d, 12h, 3600)")
	var windowMS uint
	flags.UintVar(&windowMS, "rate-limit-window-ms", env.RateLimitWindowMS, "rate limit window in milliseconds")
	var max uint
	flags.UintVar(&max, "rate-limit-max", env.RateLimitMax, "max requests per client per window")
	var origins string
	flags.StringVar(&origins, "cors-origins", env.CORSOrigins, "comma separated list of allowed CORS origins")
	flags.BoolVar(&cfg.Debug, "debug", env.AppEnv == "development", "log at DEBUG level")
	err = flags.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL, err = ParseTTL(ttl)
	if err != nil {
		return
	}
	if windowMS == 0 || max == 0 {
		return cfg, errors.New("rate limit window and max must be positive")
	}
	cfg.RateLimitWindow = time.Duration(windowMS) * time.Millisecond
	cfg.RateLimitMax = int(max)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return
}

var reDays = regexp.MustCompile(`^(\d+)\s*d$`)

// ParseTTL accepts a number of seconds, a number of days ("7d") or a Go duration ("90m").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && n > 0 {
		return time.Duration(n) * time.Second, nil
	}
	if m := reDays.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			return 0, fmt.Errorf("invalid token ttl %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid token ttl %q", s)
	}
	return d, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
