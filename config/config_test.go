package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleSpecs(t *testing.T) {
	assert := assert.New(t)

	specs, err := ParseRoleSpecs("Box Turtle|🐢|111; 3MS|123456789|222 ;")
	require.NoError(t, err)
	assert.Equal([]RoleSpec{
		{Name: "Box Turtle", Emoji: "🐢", RoleID: "111"},
		{Name: "3MS", Emoji: "123456789", RoleID: "222"},
	}, specs)

	specs, err = ParseRoleSpecs("")
	assert.NoError(err)
	assert.Empty(specs)

	_, err = ParseRoleSpecs("ERCF|🥕")
	assert.Error(err)

	_, err = ParseRoleSpecs("ERCF||333")
	assert.Error(err)
}

func TestParseIDList(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{"1", "2"}, ParseIDList(" 1, ,2,"))
	assert.Nil(ParseIDList(""))
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.Error(cfg.Validate())

	cfg.Token = "token"
	cfg.GuildID = "guild"
	assert.NoError(cfg.Validate())

	cfg.SpamThreshold = 0
	assert.Error(cfg.Validate())
	cfg.SpamThreshold = 5

	cfg.RegistryBackend = "sqlite"
	assert.Error(cfg.Validate())
	cfg.RegistryBackend = BackendBolt

	cfg.Roles = []RoleSpec{{Name: "ERCF", Emoji: "🥕", RoleID: "1"}, {Name: "ERCF", Emoji: "🥕", RoleID: "2"}}
	assert.Error(cfg.Validate())
}

func TestIsAdmin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdminIDs = ParseIDList("10,20")
	assert.True(t, cfg.IsAdmin("20"))
	assert.False(t, cfg.IsAdmin("30"))
}
