package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strings" // strings splits list-valued variables

    "github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env         string   // application environment (e.g. "dev", "prod")
    Port        string   // HTTP port to listen on
    DBUser      string   // database username
    DBPass      string   // database password (optional)
    DBHost      string   // database host address
    DBPort      string   // database port number
    DBName      string   // database name
    StaticDir   string   // directory with the browser front end (optional)
    CORSOrigins []string // allowed CORS origins; empty means "*"
    LogLevel    string   // echo logger level: debug, info, warn, error, off
}

// LoadDotEnv reads .env from the working directory when it exists.  Values
// already present in the environment win.  A missing file is not an error.
func LoadDotEnv() {
    if _, err := os.Stat(".env"); err != nil {
        return
    }
    if err := godotenv.Load(); err != nil {
        log.Printf("config: could not load .env: %v", err)
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:         envStr("APP_ENV", "dev"),        // environment (dev/test/prod)
        Port:        envStr("APP_PORT", "3000"),      // port to bind the HTTP server
        DBUser:      must("DB_USER"),                 // database user
        DBPass:      dbPassword(),                    // database password (empty allowed)
        DBHost:      envStr("DB_HOST", "localhost"),  // database host
        DBPort:      envStr("DB_PORT", "3306"),       // database port
        DBName:      must("DB_NAME"),                 // database name
        StaticDir:   os.Getenv("STATIC_DIR"),         // served at / when set
        CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
        LogLevel:    envStr("LOG_LEVEL", "info"),
    }
}

// dbPassword accepts DB_PASS and the DB_PASSWORD spelling used by older
// .env files.
func dbPassword() string {
    if v := os.Getenv("DB_PASS"); v != "" {
        return v
    }
    return os.Getenv("DB_PASSWORD")
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
