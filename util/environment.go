package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type serverEnvironment struct {
	PersistMethod string
	RedisHost     string
	RedisPort     string
	RedisPW       string
	RedisDB       string
	ListenAddr    string
	TemplateDir   string
}

// ServerEnvironment is a helper object for accessing environment variables.
var ServerEnvironment = &serverEnvironment{
	PersistMethod: "PERSIST_METHOD",
	RedisHost:     "REDIS_HOST",
	RedisPort:     "REDIS_PORT",
	RedisPW:       "REDIS_PW",
	RedisDB:       "REDIS_DB",
	ListenAddr:    "LISTEN_ADDR",
	TemplateDir:   "TEMPLATE_DIR",
}

func (s *serverEnvironment) GetPersistMethod() string {
	method := os.Getenv(s.PersistMethod)
	if method == "" {
		return "memory"
	}
	return method
}

func (s *serverEnvironment) GetRedisHost() string {
	host := os.Getenv(s.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", s.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (s *serverEnvironment) GetRedisPort() int {
	portStr := os.Getenv(s.RedisPort)
	if portStr == "" {
		msg := fmt.Sprintf("%s is not defined", s.RedisPort)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid %s value: %s", s.RedisPort, portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (s *serverEnvironment) GetRedisPW() string {
	return os.Getenv(s.RedisPW)
}

func (s *serverEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(s.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid %s value: %s", s.RedisDB, dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

func (s *serverEnvironment) GetListenAddr() string {
	addr := os.Getenv(s.ListenAddr)
	if addr == "" {
		return ":9600"
	}
	return addr
}

func (s *serverEnvironment) GetTemplateDir() string {
	dir := os.Getenv(s.TemplateDir)
	if dir == "" {
		return "templates"
	}
	return dir
}
