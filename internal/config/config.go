package config

type Config interface {
	EnvConfig
	EngineConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetCredentialsFile() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Engine
}

func New() Config {
	return mainConfig{}
}
