package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type envConfig struct {
	Port              string `env:"PORT" env-default:"8080"`
	Environment       string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseType      string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL       string `env:"DATABASE_URL" env-default:""`
	DBSchema          string `env:"DB_SCHEMA" env-default:"asset"`
	ObjectKeyStrategy string `env:"OBJECT_KEY_STRATEGY" env-default:"default"`

	StorageBackend string `env:"STORAGE_BACKEND" env-default:"memory"`
	FSBaseDir      string `env:"FS_BASE_DIR" env-default:"./data/storage"`

	S3Region                 string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	S3Bucket                 string `env:"AWS_S3_BUCKET" env-default:""`
	S3AccessKeyID            string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey        string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint               string `env:"AWS_S3_ENDPOINT" env-default:""`
	S3UseSSL                 bool   `env:"AWS_S3_USE_SSL" env-default:"true"`
	S3UsePathStyle           bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	S3EnableSSE              bool   `env:"AWS_S3_ENABLE_SSE" env-default:"false"`
	S3SSEAlgorithm           string `env:"AWS_S3_SSE_ALGORITHM" env-default:"AES256"`
	S3CreateBucketIfNotExist bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// LoadFromEnv builds a ServerConfig from environment variables.
func LoadFromEnv() (*ServerConfig, error) {
	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	backend := StorageBackendConfig{
		Name:   env.StorageBackend,
		Type:   env.StorageBackend,
		Config: map[string]interface{}{},
	}
	switch env.StorageBackend {
	case "fs":
		backend.Config["base_dir"] = env.FSBaseDir
	case "s3":
		backend.Config["region"] = env.S3Region
		backend.Config["bucket"] = env.S3Bucket
		backend.Config["access_key_id"] = env.S3AccessKeyID
		backend.Config["secret_access_key"] = env.S3SecretAccessKey
		backend.Config["endpoint"] = env.S3Endpoint
		backend.Config["use_ssl"] = env.S3UseSSL
		backend.Config["use_path_style"] = env.S3UsePathStyle
		backend.Config["enable_sse"] = env.S3EnableSSE
		backend.Config["sse_algorithm"] = env.S3SSEAlgorithm
		backend.Config["create_bucket_if_not_exist"] = env.S3CreateBucketIfNotExist
	}

	return Load(func(c *ServerConfig) error {
		c.Port = env.Port
		c.Environment = env.Environment
		c.DatabaseType = env.DatabaseType
		c.DatabaseURL = env.DatabaseURL
		c.DBSchema = env.DBSchema
		c.ObjectKeyStrategy = env.ObjectKeyStrategy
		c.DefaultStorageBackend = env.StorageBackend
		c.StorageBackends = []StorageBackendConfig{backend}
		return nil
	})
}
