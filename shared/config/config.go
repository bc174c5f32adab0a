package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	LogLevel   string  `yaml:"log_level"`
	LogJSON    bool    `yaml:"log_json"`
	DataSource string  `yaml:"data_source" validate:"oneof=rest pg"` // where threads/comments/profiles are read from
	BaaS       BaaS    `yaml:"baas"`
	Feed       Feed    `yaml:"feed"`
	Limits     Limits  `yaml:"limits"`
	Image      Image   `yaml:"image"`
	Storage    Storage `yaml:"storage"`
	Session    Session `yaml:"session"`
	Bridge     Bridge  `yaml:"bridge"`
	Pg         Pg      `yaml:"pg"`
}

type BaaS struct {
	Url     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type Feed struct {
	PageSize int `yaml:"page_size" validate:"gte=1,lte=1000"`
}

type Limits struct {
	TitleMinLen    int `yaml:"title_min_len" validate:"gte=1"`
	CaptionMaxLen  int `yaml:"caption_max_len" validate:"gte=1"`
	CommentMaxLen  int `yaml:"comment_max_len" validate:"gte=1"`
	PasswordMinLen int `yaml:"password_min_len" validate:"gte=1"`
}

type Image struct {
	MaxWidth         int      `yaml:"max_width" validate:"gte=1"`
	MaxHeight        int      `yaml:"max_height" validate:"gte=1"`
	Quality          int      `yaml:"quality" validate:"gte=1,lte=100"`
	TargetKB         int64    `yaml:"target_kb" validate:"gte=1"`
	CompressAboveKB  int64    `yaml:"compress_above_kb" validate:"gte=1"` // images larger than this get a "will be compressed" hint
	AllowedMimeTypes []string `yaml:"allowed_mime_types" validate:"min=1"`
}

type Storage struct {
	Driver string    `yaml:"driver" validate:"oneof=rest s3 fs"`
	Bucket string    `yaml:"bucket" validate:"required"`
	S3     S3Storage `yaml:"s3"`
	Fs     FsStorage `yaml:"fs"`
}

type S3Storage struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseUrl string `yaml:"public_base_url"`
}

type FsStorage struct {
	Root          string `yaml:"root"`
	PublicBaseUrl string `yaml:"public_base_url"`
}

type Session struct {
	Driver      string        `yaml:"driver" validate:"oneof=bolt redis"`
	BoltPath    string        `yaml:"bolt_path"`
	RedisUrl    string        `yaml:"redis_url"`
	DeviceId    string        `yaml:"device_id" validate:"required"`
	RefreshSkew time.Duration `yaml:"refresh_skew"`
}

type Bridge struct {
	Addr           string        `yaml:"addr" validate:"required"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimit      float64       `yaml:"rate_limit"` // mutating intents per second per client
	RateBurst      float64       `yaml:"rate_burst"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type Pg struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Dbname  string `yaml:"dbname"`
	SslMode string `yaml:"sslmode"`
	RlsRole string `yaml:"rls_role"` // role assumed per transaction so row-level security applies
}

type Private struct {
	BaaSKey     string `yaml:"baas_key" validate:"required"`
	PgPassword  string `yaml:"pg_password"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	SessionKey  string `yaml:"session_key"` // base64 AES-256 key; cached sessions are stored in clear when empty
}

// Environment variables that override private.yaml (and .env).
const (
	EnvBaaSUrl     = "IMGR_BAAS_URL"
	EnvBaaSKey     = "IMGR_BAAS_KEY"
	EnvPgPassword  = "IMGR_PG_PASSWORD"
	EnvS3AccessKey = "IMGR_S3_ACCESS_KEY"
	EnvS3SecretKey = "IMGR_S3_SECRET_KEY"
	EnvSessionKey  = "IMGR_SESSION_KEY"
)

func Defaults() Public {
	return Public{
		LogLevel:   "info",
		DataSource: "rest",
		BaaS:       BaaS{Timeout: 15 * time.Second},
		Feed:       Feed{PageSize: 20},
		Limits: Limits{
			TitleMinLen:    3,
			CaptionMaxLen:  500,
			CommentMaxLen:  500,
			PasswordMinLen: 6,
		},
		Image: Image{
			MaxWidth:         1024,
			MaxHeight:        1024,
			Quality:          80,
			TargetKB:         500,
			CompressAboveKB:  2 * 1024,
			AllowedMimeTypes: []string{"image/jpeg", "image/png"},
		},
		Storage: Storage{Driver: "rest", Bucket: "images"},
		Session: Session{
			Driver:      "bolt",
			BoltPath:    "imgr.db",
			DeviceId:    "default",
			RefreshSkew: time.Minute,
		},
		Bridge: Bridge{
			Addr:         "127.0.0.1:8090",
			RateLimit:    1,
			RateBurst:    5,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Pg: Pg{Port: 5432, SslMode: "disable", RlsRole: "authenticated"},
	}
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if err := validate.Struct(c.Private); err != nil {
		return fmt.Errorf("invalid private config: %w", err)
	}
	switch {
	case c.Public.DataSource == "pg" && (c.Public.Pg.Host == "" || c.Public.Pg.Dbname == ""):
		return errors.New("pg data source requires pg.host and pg.dbname")
	case c.Public.Storage.Driver == "s3" && c.Public.Storage.S3.Endpoint == "":
		return errors.New("s3 storage requires storage.s3.endpoint")
	case c.Public.Storage.Driver == "fs" && (c.Public.Storage.Fs.Root == "" || c.Public.Storage.Fs.PublicBaseUrl == ""):
		return errors.New("fs storage requires storage.fs.root and storage.fs.public_base_url")
	case c.Public.Session.Driver == "redis" && c.Public.Session.RedisUrl == "":
		return errors.New("redis session store requires session.redis_url")
	}
	return nil
}

// Load reads public.yaml (required) and private.yaml (optional) from
// configFolder, applies .env and IMGR_* overrides and validates the result.
func Load(configFolder string) (*Config, error) {
	public := Defaults()
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public, true); err != nil {
		return nil, err
	}

	var private Private
	if err := loadPath(path.Join(configFolder, "private.yaml"), &private, false); err != nil {
		return nil, err
	}

	if err := godotenv.Load(path.Join(configFolder, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&public, &private)

	cfg := &Config{Public: public, Private: private}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func loadPath(configPath string, output interface{}, required bool) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

func applyEnv(public *Public, private *Private) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&public.BaaS.Url, EnvBaaSUrl)
	set(&private.BaaSKey, EnvBaaSKey)
	set(&private.PgPassword, EnvPgPassword)
	set(&private.S3AccessKey, EnvS3AccessKey)
	set(&private.S3SecretKey, EnvS3SecretKey)
	set(&private.SessionKey, EnvSessionKey)
}
