package confs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("DB_BACKEND", "sqlite")
	t.Setenv("DB_NAME", "app")
}

func TestParse_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr)
	assert.Equal(t, "/admin", cfg.AdminPrefix)
	assert.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionRememberMaxAge)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestParse_Validation(t *testing.T) {
	t.Run("missing secret key", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("SECRET_KEY", "")

		_, err := Parse()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("DB_BACKEND", "mysql")

		_, err := Parse()
		assert.Error(t, err)
	})

	t.Run("postgres without host", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("DB_BACKEND", "postgresql")

		_, err := Parse()
		assert.ErrorContains(t, err, "missing required database configuration")
	})

	t.Run("remember shorter than default", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("SESSION_MAX_AGE", "48h")
		t.Setenv("SESSION_REMEMBER_MAX_AGE", "24h")

		_, err := Parse()
		assert.Error(t, err)
	})
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "sqlite file",
			cfg:  Config{DBBackend: BackendSQLite, DBName: "app"},
			want: "app.db?_foreign_keys=1",
		},
		{
			name: "sqlite memory",
			cfg:  Config{DBBackend: BackendSQLite, DBName: ":memory:"},
			want: ":memory:?_foreign_keys=1",
		},
		{
			name: "postgres url wins",
			cfg:  Config{DBBackend: BackendPostgres, DBURL: "postgres://u:p@db/x"},
			want: "postgres://u:p@db/x",
		},
		{
			name: "postgres localhost disables ssl",
			cfg:  Config{DBBackend: BackendPostgres, DBHost: "localhost", DBUser: "u", DBPassword: "p", DBName: "users", DBPort: 5432},
			want: "host=localhost user=u password=p dbname=users port=5432 sslmode=disable TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&Config{DBBackend: "mysql"}).DSN()
	assert.Error(t, err)
}
