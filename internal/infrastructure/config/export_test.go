package config

func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

func GetEnvAsFloat(key string, defaultValue float64) (float64, error) {
	var errs []error
	v := getEnvAsFloat(key, defaultValue, &errs)
	if len(errs) > 0 {
		return v, errs[0]
	}
	return v, nil
}

func (c *Config) Validate() error {
	return c.validate()
}
