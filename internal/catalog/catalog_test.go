package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

func TestDefault_Sections(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "contact", "payment", "product"}, c.Names())
}

func TestDefault_SensitiveSections(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.True(t, c.Sensitive("admin"))
	assert.True(t, c.Sensitive("payment"))
	assert.False(t, c.Sensitive("contact"))
	assert.False(t, c.Sensitive("product"))
	assert.False(t, c.Sensitive("unknown"))
}

func TestDefault_FieldOrderIsPreserved(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	var keys []string
	for _, f := range c.Fields("product") {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{
		"sales_tax",
		"standard_delivery_range",
		"extended_delivery_range",
		"include_extended_range",
		"distance_units",
	}, keys)
}

func TestDefault_FieldMetadata(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tax, ok := c.Field("product", "sales_tax")
	require.True(t, ok)
	assert.Equal(t, model.FieldTypeNumber, tax.Type)
	require.NotNil(t, tax.Min)
	require.NotNil(t, tax.Max)
	assert.InDelta(t, 0, *tax.Min, 0)
	assert.InDelta(t, 100, *tax.Max, 0)
	assert.Equal(t, "0.01", tax.Step)
	assert.Equal(t, "%", tax.Suffix)

	secret, ok := c.Field("payment", "payment_api_secret_key")
	require.True(t, ok)
	assert.Equal(t, model.FieldTypePassword, secret.Type)
	assert.True(t, secret.Encrypted)
	assert.True(t, secret.Required)

	units, ok := c.Field("product", "distance_units")
	require.True(t, ok)
	assert.True(t, units.HasOption("miles"))
	assert.True(t, units.HasOption("kilometers"))
	assert.False(t, units.HasOption("furlongs"))

	passcode, ok := c.Field("admin", model.KeyMasterPasscode)
	require.True(t, ok)
	assert.Equal(t, model.KeyMasterPasscodeConfirmation, passcode.Confirm)
	assert.Equal(t, 8, passcode.MinLength)
}

func TestCatalog_UnknownSectionIsEmpty(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, ok := c.Section("billing")
	assert.False(t, ok)
	assert.Empty(t, c.Fields("billing"))

	_, ok = c.Field("billing", "anything")
	assert.False(t, ok)
}

func TestCatalog_SectionOf(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	section, ok := c.SectionOf("payment_api_key")
	require.True(t, ok)
	assert.Equal(t, "payment", section)

	_, ok = c.SectionOf("nope")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "empty",
			doc:  "sections: []",
			want: "no sections",
		},
		{
			name: "duplicate key across sections",
			doc: `
sections:
  - name: a
    fields: [{key: k, type: text}]
  - name: b
    fields: [{key: k, type: text}]
`,
			want: `field "k" declared in both`,
		},
		{
			name: "unknown type",
			doc: `
sections:
  - name: a
    fields: [{key: k, type: color}]
`,
			want: "unknown type",
		},
		{
			name: "select without options",
			doc: `
sections:
  - name: a
    fields: [{key: k, type: select}]
`,
			want: "needs options",
		},
		{
			name: "duplicate section",
			doc: `
sections:
  - name: a
  - name: a
`,
			want: "duplicate section",
		},
		{
			name: "bad yaml",
			doc:  "sections: [",
			want: "decode catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
