package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"DEBUG"`

		Auth   AuthProperties       `envPrefix:"AUTH_"`
		S3     S3Properties         `envPrefix:"S3_"`
		Server HttpServerProperties `envPrefix:"HTTP_"`
		Store  StoreProperties      `envPrefix:"STORE_"`
		Probe  ProbeProperties      `envPrefix:"PROBE_"`
	}

	AuthProperties struct {
		// Secret signs session tokens. The server refuses to issue or
		// verify tokens without it.
		Secret           string        `env:"SECRET"`
		ViewerPassword   string        `env:"VIEWER_PASSWORD"`
		AdminPin         string        `env:"ADMIN_PIN"`
		ViewerCookieName string        `env:"VIEWER_COOKIE" envDefault:"memocal_viewer"`
		AdminCookieName  string        `env:"ADMIN_COOKIE" envDefault:"memocal_admin"`
		AdminPinHeader   string        `env:"ADMIN_PIN_HEADER" envDefault:"X-Admin-Pin"`
		ViewerMaxAge     time.Duration `env:"VIEWER_MAX_AGE" envDefault:"8760h"`
		AdminMaxAge      time.Duration `env:"ADMIN_MAX_AGE" envDefault:"168h"`
	}

	HttpServerProperties struct {
		Name        string        `env:"NAME" envDefault:"memocal"`
		Port        string        `env:"PORT" envDefault:"8088"`
		Origin      string        `env:"ORIGIN" envDefault:"http://localhost:3000"`
		ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	S3Properties struct {
		Host            string        `env:"HOST" envDefault:"s3.minio.com"`
		AccessKey       string        `env:"ACCESS_KEY"`
		SecretKey       string        `env:"SECRET_KEY"`
		Bucket          string        `env:"BUCKET" envDefault:"memocal"`
		UseSSL          bool          `env:"USE_SSL" envDefault:"true"`
		PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"https://s3.minio.com/memocal"`
		ProcessedPrefix string        `env:"PROCESSED_PREFIX" envDefault:"processed"`
		OriginalsPrefix string        `env:"ORIGINALS_PREFIX" envDefault:"originals"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	StoreProperties struct {
		Path string `env:"PATH" envDefault:"memocal.db"`
	}

	ProbeProperties struct {
		// FFprobe is the binary used to read creation timestamps out of
		// video containers.
		FFprobe string `env:"FFPROBE" envDefault:"ffprobe"`
	}
)

func ReadProperties() *Properties {
	config := &Properties{}

	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return config
}
