package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
)

type stubDictionary struct {
	items map[string][]domain.DictionaryItem
	err   error
}

func (s *stubDictionary) GetItems(_ context.Context, category, key string) ([]domain.DictionaryItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items[category+"/"+key], nil
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func validGoogleInput() *AccountApplicationInput {
	return &AccountApplicationInput{
		Name:           "Acme Ads",
		CurrencyCode:   "USD",
		Timezone:       "Asia/Shanghai",
		PromotionLinks: []string{"https://acme.com"},
		Auths:          []AuthEntry{{Role: intPtr(1), Value: strPtr("a@acme.com")}},
		RegistrationDetails: &RegistrationDetails{
			CompanyNameEN: "Acme Ltd",
			LegalRepName:  "Jane Doe",
			IDNumber:      "110101199001011234",
		},
	}
}

func TestAccountValidatorAcceptsValidGoogleApplication(t *testing.T) {
	v := NewAccountValidator(nil)

	app, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, validGoogleInput(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ads", app.Name)
	assert.Equal(t, "USD", app.CurrencyCode)
	assert.Equal(t, []string{"https://acme.com"}, app.PromotionLinks)
	assert.Len(t, app.Auths, 1)
}

func TestAccountValidatorNamesMissingIdentityFields(t *testing.T) {
	v := NewAccountValidator(nil)

	input := validGoogleInput()
	input.Name = ""
	input.CurrencyCode = ""
	input.Timezone = ""

	_, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, input, Options{})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))

	fields := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "currencyCode")
	assert.Contains(t, fields, "timezone")
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "currencyCode")
	assert.Contains(t, err.Error(), "timezone")
}

func TestPromotionLinksPrependScheme(t *testing.T) {
	ve := &ValidationError{}
	links := normalizePromotionLinks([]string{"example.com/x"}, ve)

	require.False(t, ve.hasErrors())
	assert.Equal(t, []string{"https://example.com/x"}, links)
}

func TestPromotionLinksEmptyListFails(t *testing.T) {
	ve := &ValidationError{}
	normalizePromotionLinks([]string{}, ve)

	require.True(t, ve.hasErrors())
	assert.Contains(t, ve.Error(), "at least one promotion link")
}

func TestPromotionLinksAggregateLengthCapped(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 900)
	ve := &ValidationError{}
	normalizePromotionLinks([]string{long, long}, ve)

	require.True(t, ve.hasErrors())
	assert.Contains(t, ve.Error(), "1800")
}

func TestAuthEntryPairing(t *testing.T) {
	t.Run("role without email fails", func(t *testing.T) {
		ve := &ValidationError{}
		validateAuths([]AuthEntry{{Role: intPtr(1), Value: strPtr("")}}, ve)
		require.True(t, ve.hasErrors())
		assert.Contains(t, ve.Error(), "both role and email are required")
	})

	t.Run("fully empty entry is a no-op", func(t *testing.T) {
		ve := &ValidationError{}
		kept := validateAuths([]AuthEntry{{Role: nil, Value: nil}}, ve)
		assert.False(t, ve.hasErrors())
		assert.Empty(t, kept)
	})

	t.Run("invalid email fails", func(t *testing.T) {
		ve := &ValidationError{}
		validateAuths([]AuthEntry{{Role: intPtr(1), Value: strPtr("not-an-email")}}, ve)
		require.True(t, ve.hasErrors())
	})
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"100", true},
		{"100.5", true},
		{"100.55", true},
		{"0.01", true},
		{"100.555", false},
		{"0", false},
		{"-5", false},
		{"1e3", false},
		{"abc", false},
		{"", false},
		{"01.5", false},
	}
	for _, tc := range cases {
		ve := &ValidationError{}
		validateAmount("amount", tc.value, ve)
		assert.Equal(t, tc.ok, !ve.hasErrors(), "value %q", tc.value)
	}
}

func TestPermissiveModeDropsOptionalFailuresButKeepsIdentity(t *testing.T) {
	v := NewAccountValidator(nil)

	input := validGoogleInput()
	input.RechargeAmount = "not-a-number"
	input.Auths = append(input.Auths, AuthEntry{Role: intPtr(2), Value: strPtr("")})

	// 严格模式整体失败
	_, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, input, Options{})
	require.Error(t, err)

	// 宽松模式丢弃不合法的可选字段
	app, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, input, Options{Permissive: true})
	require.NoError(t, err)
	assert.Empty(t, app.RechargeAmount)
	assert.Len(t, app.Auths, 1)

	// 身份字段缺失时宽松模式仍然失败
	input.Name = ""
	_, err = v.Validate(context.Background(), domain.SubtypeGoogleAccount, input, Options{Permissive: true})
	require.Error(t, err)
}

func TestTiktokRequiresCountriesAndRegistration(t *testing.T) {
	v := NewAccountValidator(nil)

	input := validGoogleInput()
	input.AdvertisingCountries = nil
	input.RegistrationDetails = nil

	_, err := v.Validate(context.Background(), domain.SubtypeTiktokAccount, input, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advertisingCountries")
	assert.Contains(t, err.Error(), "registrationDetails")
}

func TestDictionaryBackedTimezones(t *testing.T) {
	dict := &stubDictionary{items: map[string][]domain.DictionaryItem{
		"COMMON/TIMEZONE": {{ItemName: "上海", ItemValue: "Asia/Shanghai"}},
		"COMMON/CURRENCY": {{ItemName: "美元", ItemValue: "USD"}},
	}}
	v := NewAccountValidator(dict)

	_, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, validGoogleInput(), Options{})
	assert.NoError(t, err)

	input := validGoogleInput()
	input.Timezone = "Mars/Olympus"
	_, err = v.Validate(context.Background(), domain.SubtypeGoogleAccount, input, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported timezone")
}

func TestDictionaryFailureFallsBackToDefaults(t *testing.T) {
	dict := &stubDictionary{err: errors.New("dictionary unavailable")}
	v := NewAccountValidator(dict)

	_, err := v.Validate(context.Background(), domain.SubtypeGoogleAccount, validGoogleInput(), Options{})
	assert.NoError(t, err)
}

func TestFundingValidator(t *testing.T) {
	v := NewFundingValidator()

	t.Run("deposit requires positive amount", func(t *testing.T) {
		op, err := v.Validate(domain.SubtypeDeposit, &FundingInput{
			MediaAccountID: "act-1", Amount: "500.50", Currency: "USD",
		})
		require.NoError(t, err)
		assert.Equal(t, "500.50", op.AmountRaw)
		assert.True(t, op.Amount.IsPositive())

		_, err = v.Validate(domain.SubtypeDeposit, &FundingInput{MediaAccountID: "act-1", Amount: "-1"})
		require.Error(t, err)
	})

	t.Run("transfer requires distinct target", func(t *testing.T) {
		_, err := v.Validate(domain.SubtypeTransfer, &FundingInput{
			MediaAccountID: "act-1", Amount: "10", TargetAccountID: "act-1",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target account must differ")

		_, err = v.Validate(domain.SubtypeTransfer, &FundingInput{
			MediaAccountID: "act-1", Amount: "10", TargetAccountID: "act-2",
		})
		assert.NoError(t, err)
	})

	t.Run("zeroing needs only account", func(t *testing.T) {
		op, err := v.Validate(domain.SubtypeZeroing, &FundingInput{MediaAccountID: "act-1"})
		require.NoError(t, err)
		assert.Empty(t, op.AmountRaw)

		_, err = v.Validate(domain.SubtypeZeroing, &FundingInput{})
		require.Error(t, err)
	})

	t.Run("bind account requires role and value", func(t *testing.T) {
		_, err := v.Validate(domain.SubtypeBindAccount, &FundingInput{MediaAccountID: "act-1"})
		require.Error(t, err)

		op, err := v.Validate(domain.SubtypeBindAccount, &FundingInput{
			MediaAccountID: "act-1", BindRole: intPtr(1), BindValue: "ops@acme.com",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, op.BindRole)
	})
}
