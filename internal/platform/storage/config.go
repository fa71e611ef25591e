// Package storage はS3互換オブジェクトストレージへのアクセスを提供します。
package storage

import (
	"errors"
	"os"
	"strconv"
)

// DefaultPrefix はオブジェクトキーの先頭に付くフォルダ名の既定値です。
const DefaultPrefix = "video-online-prj"

// Config はオブジェクトストレージの接続設定です。
type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Endpoint     string // MinIOなどAWS以外を使う場合のみ設定
	UsePathStyle bool
	Prefix       string
}

// LoadConfigFromEnv は環境変数からConfigを読み込みます。
// AWS_BUCKETが未設定の場合はエラーを返します。
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Bucket:    os.Getenv("AWS_BUCKET"),
		Endpoint:  os.Getenv("AWS_ENDPOINT"),
		Prefix:    os.Getenv("STORAGE_PREFIX"),
	}
	cfg.UsePathStyle, _ = strconv.ParseBool(os.Getenv("AWS_USE_PATH_STYLE"))
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		return Config{}, errors.New("AWS_BUCKET is not set")
	}
	return cfg, nil
}
