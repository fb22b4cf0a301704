package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMac(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"colon form", "00:18:6e:35:76:31", "00:18:6E:35:76:31", false},
		{"dash form", "00-18-6E-35-76-31", "00:18:6E:35:76:31", false},
		{"huawei form", "0018-6e35-7631", "00:18:6E:35:76:31", false},
		{"dotted form", "0018.6e35.7631", "00:18:6E:35:76:31", false},
		{"bare hex", "00186e357631", "00:18:6E:35:76:31", false},
		{"whitespace", "  00:18:6e:35:76:31 ", "00:18:6E:35:76:31", false},
		{"too short", "00:18:6e", "", true},
		{"garbage", "not-a-mac", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMac(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMac)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHuaweiMac(t *testing.T) {
	assert.Equal(t, "0018-6e35-7631", HuaweiMac("00:18:6E:35:76:31"))
}

func TestExtractSiteCode(t *testing.T) {
	assert.Equal(t, "07", ExtractSiteCode("07_L2_RACK01_181"))
	assert.Equal(t, "21", ExtractSiteCode("21_L3-CORE_251"))
	assert.Equal(t, "", ExtractSiteCode("core-sw-1"))
	assert.Equal(t, "", ExtractSiteCode(""))
}

func TestIsCoreSwitch(t *testing.T) {
	assert.True(t, SwitchNode{Hostname: "21_L3-CORE_251"}.IsCoreSwitch())
	assert.True(t, SwitchNode{Hostname: "dist-core-a"}.IsCoreSwitch())
	assert.False(t, SwitchNode{Hostname: "07_L2_RACK01_181"}.IsCoreSwitch())
	// Explicit flag wins over naming.
	assert.True(t, SwitchNode{Hostname: "07_L2_RACK01_181", IsCore: true}.IsCoreSwitch())
}

func TestLinkEdgeKeys(t *testing.T) {
	e := LinkEdge{LocalID: 5, RemoteID: 2, LocalPort: "XGE1/0/1", RemotePort: "XGE2/0/1"}
	assert.Equal(t, "2-5", e.PairKey())
	assert.Equal(t, "2-5", e.Reversed().PairKey())
	assert.Equal(t, []string{"5-2", "2-5"}, e.EdgeKeys())

	r := e.Reversed()
	assert.Equal(t, "XGE2/0/1", r.LocalPort)
	assert.Equal(t, "XGE1/0/1", r.RemotePort)
}
