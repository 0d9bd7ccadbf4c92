package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trader.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"pairs":["GBPUSD","EURUSD"]}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sim", cfg.Broker)
	assert.Equal(t, []string{"GBPUSD", "EURUSD"}, cfg.Pairs)
	assert.Equal(t, int64(100000), cfg.DefaultUnits)
	assert.Equal(t, 1024, cfg.QueueCapacity)
	assert.Equal(t, 3, cfg.SubmitRetries)
	assert.Equal(t, 5*time.Second, cfg.AckWait)
	assert.Equal(t, "SMART", cfg.OrderRouting)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoadRestRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `{"broker":"rest","domain":"api.example.com","pairs":["GBPUSD"]}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `{"broker":"rest","domain":"api.example.com","accessToken":"file-token","accountId":"file-acct","pairs":["GBPUSD"]}`)

	t.Setenv("BROKER_ACCESS_TOKEN", "env-token")
	t.Setenv("BROKER_ACCOUNT_ID", "env-acct")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.AccessToken)
	assert.Equal(t, "env-acct", cfg.AccountID)
}

func TestLoadRejectsBadPairs(t *testing.T) {
	for _, body := range []string{
		`{"pairs":[]}`,
		`{"pairs":["GBP_USD"]}`,
		`{"pairs":["gbpusd"]}`,
		`{"broker":"carrier-pigeon","pairs":["GBPUSD"]}`,
	} {
		path := writeConfig(t, body)
		_, err := Load(path)
		assert.Error(t, err, body)
	}
}
