package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Alwanly/service-feed-ingest/pkg/pubsub"
	"github.com/Alwanly/service-feed-ingest/pkg/validator"
)

// Sink backends
const (
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// rpcMaxFrameDefault matches rpc.DefaultMaxFrameSize.
const rpcMaxFrameDefault = 64 << 20

type SinkConfig struct {
	Backend        string `validate:"oneof=redis sqlite postgres"`
	SQLitePath     string
	PostgresDSN    string `validate:"required_if=Backend postgres"`
	ForwardChannel string
	// Forward disables publishing to the downstream service when false.
	Forward bool
}

type AdminConfig struct {
	Addr          string
	Username      string
	Password      string
	AdminUsername string
	AdminPassword string
}

type BatchConfig struct {
	CatalogPath string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
	Threads     int           `validate:"gt=0"`
	Cadence     time.Duration `validate:"gt=0"`
	Admin       AdminConfig
	Redis       pubsub.RedisConfig
	Sink        SinkConfig
}

// PoolConfig configures the worker pool. The worker delay and per-fetch
// timeout are fixed (poll.DefaultConfig) and not read from here.
// RPCMaxFrame bounds one control-plane request or response body.
// Membership is nil unless --zk-servers is given.
type PoolConfig struct {
	CatalogPath string `validate:"required"`
	RPCAddr     string `validate:"required"`
	RPCMaxFrame int    `validate:"gt=0"`
	Admin       AdminConfig
	Redis       pubsub.RedisConfig
	Sink        SinkConfig
	Membership  *MemberConfig
}

type MemberConfig struct {
	Servers        []string      `validate:"min=1"`
	Root           string        `validate:"required,startswith=/"`
	SessionTimeout time.Duration `validate:"gt=0"`
	ConnectTimeout time.Duration `validate:"gt=0"`
}

// CtlConfig configures the ingestctl client
type CtlConfig struct {
	Addr           string        `validate:"required"`
	Timeout        time.Duration `validate:"gt=0"`
	MaxFrame       int           `validate:"gt=0"`
	MaxRetries     int           `validate:"gte=0"`
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// newViper returns a viper instance reading environment variables, with
// flag names mapped to env names (catalog-path -> CATALOG_PATH).
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	return v, nil
}

func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("redis_host", "127.0.0.1")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("sink_backend", BackendRedis)
	v.SetDefault("sqlite_path", "./data/feeds.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("forward_channel", "feeds:realtime")
	v.SetDefault("forward_enabled", true)

	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_password", "password")
	v.SetDefault("viewer_user", "viewer")
	v.SetDefault("viewer_password", "viewerpass")
}

func readRedis(v *viper.Viper) pubsub.RedisConfig {
	return pubsub.RedisConfig{
		Host:     v.GetString("redis_host"),
		Port:     v.GetInt("redis_port"),
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
	}
}

func readSink(v *viper.Viper) SinkConfig {
	return SinkConfig{
		Backend:        strings.ToLower(v.GetString("sink_backend")),
		SQLitePath:     v.GetString("sqlite_path"),
		PostgresDSN:    v.GetString("postgres_dsn"),
		ForwardChannel: v.GetString("forward_channel"),
		Forward:        v.GetBool("forward_enabled"),
	}
}

func readAdmin(v *viper.Viper, addrKey string) AdminConfig {
	return AdminConfig{
		Addr:          v.GetString(addrKey),
		Username:      v.GetString("viewer_user"),
		Password:      v.GetString("viewer_password"),
		AdminUsername: v.GetString("admin_user"),
		AdminPassword: v.GetString("admin_password"),
	}
}

// LoadBatchConfig reads the batch driver config from args and the environment.
// --timeout is in milliseconds.
func LoadBatchConfig(args []string) (*BatchConfig, error) {
	flags := pflag.NewFlagSet("batch", pflag.ContinueOnError)
	flags.String("urls", "urls.csv", "agency catalog CSV")
	flags.Int("timeout", 15000, "per-fetch timeout in milliseconds")
	flags.Int("threads", 50, "agencies polled concurrently")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	setCommonDefaults(v)
	v.SetDefault("cadence_ms", 500)
	v.SetDefault("batch_admin_addr", ":8091")

	cfg := &BatchConfig{
		CatalogPath: v.GetString("urls"),
		Timeout:     time.Duration(v.GetInt("timeout")) * time.Millisecond,
		Threads:     v.GetInt("threads"),
		Cadence:     time.Duration(v.GetInt("cadence_ms")) * time.Millisecond,
		Admin:       readAdmin(v, "batch_admin_addr"),
		Redis:       readRedis(v),
		Sink:        readSink(v),
	}
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}
	return cfg, nil
}

// LoadPoolConfig reads the worker pool config from args and the environment.
func LoadPoolConfig(args []string) (*PoolConfig, error) {
	flags := pflag.NewFlagSet("pool", pflag.ContinueOnError)
	flags.String("urls", "urls.csv", "agency catalog CSV")
	flags.String("rpc-addr", "localhost:9010", "control-plane RPC listen address")
	flags.StringSlice("zk-servers", nil, "ZooKeeper ensemble to register with (disabled when empty)")
	flags.String("zk-root", "/kactusworkers", "persistent membership root")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	setCommonDefaults(v)
	setMemberDefaults(v)
	v.SetDefault("pool_admin_addr", ":8090")
	v.SetDefault("rpc_max_frame_bytes", rpcMaxFrameDefault)

	cfg := &PoolConfig{
		CatalogPath: v.GetString("urls"),
		RPCAddr:     v.GetString("rpc-addr"),
		RPCMaxFrame: v.GetInt("rpc_max_frame_bytes"),
		Admin:       readAdmin(v, "pool_admin_addr"),
		Redis:       readRedis(v),
		Sink:        readSink(v),
	}
	if member := readMember(v); len(member.Servers) > 0 {
		cfg.Membership = &member
	}
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}
	return cfg, nil
}

// LoadMemberConfig reads the membership registration config.
func LoadMemberConfig(args []string) (*MemberConfig, error) {
	flags := pflag.NewFlagSet("member", pflag.ContinueOnError)
	flags.StringSlice("zk-servers", []string{"127.0.0.1:2181"}, "ZooKeeper ensemble")
	flags.String("zk-root", "/kactusworkers", "persistent membership root")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	setMemberDefaults(v)

	cfg := readMember(v)
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid member config: %w", err)
	}
	return &cfg, nil
}

func setMemberDefaults(v *viper.Viper) {
	v.SetDefault("zk_session_timeout_ms", 10000)
	v.SetDefault("zk_connect_timeout_ms", 10000)
}

func readMember(v *viper.Viper) MemberConfig {
	return MemberConfig{
		Servers:        splitList(v.GetStringSlice("zk-servers")),
		Root:           v.GetString("zk-root"),
		SessionTimeout: time.Duration(v.GetInt("zk_session_timeout_ms")) * time.Millisecond,
		ConnectTimeout: time.Duration(v.GetInt("zk_connect_timeout_ms")) * time.Millisecond,
	}
}

// LoadCtlConfig reads the ingestctl config. flags are the command's
// persistent flags, already parsed by cobra.
func LoadCtlConfig(flags *pflag.FlagSet) (*CtlConfig, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	v.SetDefault("addr", "localhost:9010")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("dial_max_retries", 3)
	v.SetDefault("dial_initial_backoff", 200*time.Millisecond)
	v.SetDefault("dial_max_backoff", 2*time.Second)
	v.SetDefault("rpc_max_frame_bytes", rpcMaxFrameDefault)

	cfg := &CtlConfig{
		Addr:           v.GetString("addr"),
		Timeout:        v.GetDuration("timeout"),
		MaxFrame:       v.GetInt("rpc_max_frame_bytes"),
		MaxRetries:     v.GetInt("dial_max_retries"),
		InitialBackoff: v.GetDuration("dial_initial_backoff"),
		MaxBackoff:     v.GetDuration("dial_max_backoff"),
	}
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid ctl config: %w", err)
	}
	return cfg, nil
}

// splitList accepts both repeated values and a single comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
