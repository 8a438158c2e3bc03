package ledger

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/domain/coa"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBootstrapService_BootstrapTenantCOA(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds the standard template and binds control defaults", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewBootstrapService(env.exec, DefaultBootstrapConfig(), zap.NewNop())
		state := "Texas"

		res, err := svc.BootstrapTenantCOA(ctx, env.cc, "", &state)
		require.NoError(t, err)
		assert.False(t, res.AlreadyBootstrapped)
		assert.Equal(t, coa.TemplateStandard, res.TemplateKey)
		assert.Equal(t, int64(len(coa.SharedClassifications())), res.ClassificationCount)
		assert.Equal(t, int64(len(coa.AccountTemplates(coa.TemplateStandard))), res.AccountCount)

		for _, ct := range []ledger.ControlAccountType{
			ledger.ControlAR, ledger.ControlAP, ledger.ControlSalesTaxPayable,
			ledger.ControlUndepositedFunds, ledger.ControlRetainedEarnings, ledger.ControlRounding,
		} {
			assert.Contains(t, res.ControlAccounts, string(ct))
		}

		tax, err := env.repos().Accounts().FindByNumber(ctx, env.cc.TenantID, "2100")
		require.NoError(t, err)
		require.NotNil(t, tax)
		assert.Equal(t, "Texas Sales Tax Payable", tax.Name)
		assert.True(t, tax.IsControlAccount)
		assert.False(t, tax.AllowManualPosting)
		assert.Equal(t, tax.ID, res.ControlAccounts[string(ledger.ControlSalesTaxPayable)])

		settings, err := env.repos().Settings().FindByTenant(ctx, env.cc.TenantID)
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.Equal(t, ledger.AutoPostModeAuto, settings.AutoPostMode)
		assert.Equal(t, ledger.DefaultRoundingToleranceCents, settings.RoundingToleranceCents)

		assert.Equal(t, []string{ledger.EventTypeCOABootstrapped}, env.events.types())
	})

	t.Run("second run changes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewBootstrapService(env.exec, DefaultBootstrapConfig(), zap.NewNop())

		first, err := svc.BootstrapTenantCOA(ctx, env.cc, coa.TemplateHospitality, nil)
		require.NoError(t, err)
		second, err := svc.BootstrapTenantCOA(ctx, env.cc, coa.TemplateStandard, nil)
		require.NoError(t, err)

		assert.True(t, second.AlreadyBootstrapped)
		assert.Equal(t, coa.TemplateHospitality, second.TemplateKey)
		assert.Equal(t, first.AccountCount, second.AccountCount)
		assert.Equal(t, first.ClassificationCount, second.ClassificationCount)
		assert.Equal(t, first.ControlAccounts, second.ControlAccounts)
		assert.Len(t, env.events.events, 1)
	})

	t.Run("existing accounts are kept and promoted", func(t *testing.T) {
		env := newTestEnv(t)
		ar := env.account(t, "1200", ledger.AccountTypeAsset)
		svc := NewBootstrapService(env.exec, DefaultBootstrapConfig(), zap.NewNop())

		res, err := svc.BootstrapTenantCOA(ctx, env.cc, coa.TemplateStandard, nil)
		require.NoError(t, err)
		assert.Equal(t, ar.ID, res.ControlAccounts[string(ledger.ControlAR)])
		assert.Equal(t, int64(len(coa.AccountTemplates(coa.TemplateStandard))), res.AccountCount)

		promoted, err := env.repos().Accounts().FindByID(ctx, env.cc.TenantID, ar.ID)
		require.NoError(t, err)
		assert.True(t, promoted.IsControlAccount)
	})

	t.Run("unknown template", func(t *testing.T) {
		env := newTestEnv(t)
		svc := NewBootstrapService(env.exec, DefaultBootstrapConfig(), zap.NewNop())

		_, err := svc.BootstrapTenantCOA(ctx, env.cc, "franchise", nil)
		requireCode(t, err, "MISSING_TEMPLATE")
		assert.Contains(t, err.Error(), "hospitality, standard")

		settings, err := env.repos().Settings().FindByTenant(ctx, env.cc.TenantID)
		require.NoError(t, err)
		assert.Nil(t, settings)
	})
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	accounts := NewAccountService(env.exec)
	classifications := NewClassificationService(env.exec)

	current, err := classifications.CreateGLClassification(ctx, env.cc, CreateClassificationRequest{
		Name: "Current Assets", AccountType: string(ledger.AccountTypeAsset), SortOrder: 10,
	})
	require.NoError(t, err)

	t.Run("creates an account", func(t *testing.T) {
		resp, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{
			AccountNumber: "1000", Name: "Cash", AccountType: "asset", ClassificationID: &current.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "debit", resp.NormalBalance)
		assert.True(t, resp.IsActive)
		assert.True(t, resp.AllowManualPosting)
	})

	t.Run("rejects a duplicate number", func(t *testing.T) {
		_, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{AccountNumber: "1000", Name: "Cash 2", AccountType: "asset"})
		requireCode(t, err, "DUPLICATE_ACCOUNT_NUMBER")
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("rejects a classification of another type", func(t *testing.T) {
		_, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{
			AccountNumber: "4000", Name: "Sales", AccountType: "revenue", ClassificationID: &current.ID,
		})
		requireCode(t, err, "CLASSIFICATION_TYPE_MISMATCH")
	})

	t.Run("deactivates, activates and lists", func(t *testing.T) {
		resp, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{AccountNumber: "1010", Name: "Bank", AccountType: "asset"})
		require.NoError(t, err)

		off, err := accounts.DeactivateAccount(ctx, env.cc, resp.ID)
		require.NoError(t, err)
		assert.False(t, off.IsActive)

		active, err := accounts.ListAccounts(ctx, env.cc.TenantID, AccountListFilter{ActiveOnly: true})
		require.NoError(t, err)
		for _, a := range active {
			assert.NotEqual(t, resp.ID, a.ID)
		}

		on, err := accounts.ActivateAccount(ctx, env.cc, resp.ID)
		require.NoError(t, err)
		assert.True(t, on.IsActive)

		_, err = accounts.ListAccounts(ctx, env.cc.TenantID, AccountListFilter{AccountType: "income"})
		requireCode(t, err, "INVALID_ACCOUNT_TYPE")
	})

	t.Run("delete is refused once lines are posted", func(t *testing.T) {
		engine := NewPostingEngine(env.exec, zap.NewNop())
		used, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{AccountNumber: "6000", Name: "Supplies", AccountType: "expense"})
		require.NoError(t, err)
		spare, err := accounts.CreateAccount(ctx, env.cc, CreateAccountRequest{AccountNumber: "6100", Name: "Spare", AccountType: "expense"})
		require.NoError(t, err)
		cash, err := accounts.ListAccounts(ctx, env.cc.TenantID, AccountListFilter{Search: "Cash"})
		require.NoError(t, err)
		require.NotEmpty(t, cash)

		_, err = engine.PostEntry(ctx, env.cc, twoLineRequest(used.ID, cash[0].ID, "5.00", "5.00"))
		require.NoError(t, err)

		err = accounts.DeleteAccount(ctx, env.cc, used.ID)
		requireCode(t, err, "ACCOUNT_IN_USE")

		require.NoError(t, accounts.DeleteAccount(ctx, env.cc, spare.ID))
		_, err = accounts.GetAccount(ctx, env.cc.TenantID, spare.ID)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("control accounts cannot be deleted", func(t *testing.T) {
		ar := env.account(t, "1200", ledger.AccountTypeAsset)
		ar.MarkControl(ledger.ControlAR)
		require.NoError(t, env.repos().Accounts().Save(ctx, ar))

		err := accounts.DeleteAccount(ctx, env.cc, ar.ID)
		requireCode(t, err, "CONTROL_ACCOUNT")
	})
}

func TestClassificationService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewClassificationService(env.exec)

	equity, err := svc.CreateGLClassification(ctx, env.cc, CreateClassificationRequest{Name: "Equity", AccountType: "equity", SortOrder: 50})
	require.NoError(t, err)

	_, err = svc.CreateGLClassification(ctx, env.cc, CreateClassificationRequest{Name: "  EQUITY ", AccountType: "equity"})
	requireCode(t, err, "DUPLICATE_CLASSIFICATION")

	otherTenant := env.cc
	otherTenant.TenantID = uuid.New()
	_, err = svc.CreateGLClassification(ctx, otherTenant, CreateClassificationRequest{Name: "Equity", AccountType: "equity"})
	assert.NoError(t, err, "names are unique per tenant only")

	other, err := svc.CreateGLClassification(ctx, env.cc, CreateClassificationRequest{Name: "Other Revenue", AccountType: "revenue", SortOrder: 70})
	require.NoError(t, err)

	_, err = svc.UpdateGLClassification(ctx, env.cc, other.ID, UpdateClassificationRequest{Name: "equity", AccountType: "revenue"})
	requireCode(t, err, "DUPLICATE_CLASSIFICATION")

	renamed, err := svc.UpdateGLClassification(ctx, env.cc, other.ID, UpdateClassificationRequest{Name: "Non-Operating Revenue", AccountType: "revenue", SortOrder: 75})
	require.NoError(t, err)
	assert.Equal(t, "Non-Operating Revenue", renamed.Name)

	_, err = svc.UpdateGLClassification(ctx, env.cc, uuid.New(), UpdateClassificationRequest{Name: "X", AccountType: "asset"})
	assert.True(t, shared.IsNotFound(err))

	list, err := svc.ListGLClassifications(ctx, env.cc.TenantID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, equity.ID, list[0].ID)
}

func TestMappingService_Upsert(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewMappingService(env.exec)
	cash := env.account(t, "1000", ledger.AccountTypeAsset)
	clearing := env.account(t, "1020", ledger.AccountTypeAsset)

	first, err := svc.UpsertGLAccountMapping(ctx, env.cc, UpsertMappingRequest{EntityType: "payment_type", EntityID: "cash", AssetAccountID: &cash.ID})
	require.NoError(t, err)

	second, err := svc.UpsertGLAccountMapping(ctx, env.cc, UpsertMappingRequest{EntityType: "payment_type", EntityID: "cash", AssetAccountID: &clearing.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.AssetAccountID)
	assert.Equal(t, clearing.ID, *second.AssetAccountID)

	def, err := svc.UpsertGLAccountMapping(ctx, env.cc, UpsertMappingRequest{EntityType: "payment_type", AssetAccountID: &cash.ID})
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultEntityID, def.EntityID)

	_, err = svc.UpsertGLAccountMapping(ctx, env.cc, UpsertMappingRequest{EntityType: "payment_type", EntityID: "card"})
	requireCode(t, err, "EMPTY_MAPPING")

	missing := uuid.New()
	_, err = svc.UpsertGLAccountMapping(ctx, env.cc, UpsertMappingRequest{EntityType: "payment_type", EntityID: "card", AssetAccountID: &missing})
	assert.True(t, shared.IsNotFound(err))

	list, err := svc.ListGLAccountMappings(ctx, env.cc.TenantID, "payment_type")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

