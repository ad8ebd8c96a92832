package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ndewijer/wealth-tracker/internal/api/request"
	"github.com/ndewijer/wealth-tracker/internal/model"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// AccountCmd groups the account commands.
type AccountCmd struct {
	Add  AccountAddCmd  `cmd:"" help:"Create an account."`
	List AccountListCmd `cmd:"" help:"List accounts." default:"1"`
	Edit AccountEditCmd `cmd:"" help:"Change an account."`
	Rm   AccountRmCmd   `cmd:"" help:"Delete an account and its transactions."`
}

type AccountAddCmd struct {
	Name       string `arg:"" help:"Account name."`
	Type       string `help:"Account type." enum:"exchange,wallet,bank,broker,other" default:"exchange"`
	Currency   string `help:"Default quote currency of its transactions." short:"c"`
	Datasource string `help:"Import source the account belongs to."`
	ExternalID string `help:"Identifier of the account at its source." name:"external-id"`
}

func (cmd *AccountAddCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	req := request.CreateAccountRequest{
		Name:       cmd.Name,
		Type:       cmd.Type,
		Currency:   cmd.Currency,
		Datasource: cmd.Datasource,
		ExternalID: cmd.ExternalID,
	}
	if err := validation.ValidateCreateAccount(req); err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	account, err := a.Accounts.CreateAccount(ctx, req)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Created account #%d %s", account.ID, account.Name))
	return nil
}

type AccountListCmd struct{}

func (cmd *AccountListCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	accounts, err := a.Accounts.GetAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		printInfof(kctx.Stdout, "No accounts yet. Create one with: wealth account add NAME")
		return nil
	}
	renderTable(kctx.Stdout, []string{"ID", "Name", "Type", "Currency", "Source", "Created"}, accountRows(accounts), 0)
	return nil
}

func accountRows(accounts []model.Account) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, acc := range accounts {
		rows = append(rows, []string{
			strconv.FormatInt(acc.ID, 10),
			acc.Name,
			acc.Type,
			orDash(acc.Currency),
			orDash(acc.Datasource),
			formatTime(acc.CreatedAt),
		})
	}
	return rows
}

// AccountEditCmd changes the flags that are given. Empty flags keep the
// current value.
type AccountEditCmd struct {
	ID         int64  `arg:"" help:"Account id."`
	Name       string `help:"New name."`
	Type       string `help:"New type: exchange, wallet, bank, broker or other."`
	Currency   string `help:"New default quote currency." short:"c"`
	Datasource string `help:"New import source."`
	ExternalID string `help:"New identifier at the source." name:"external-id"`
}

func (cmd *AccountEditCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	id, err := positiveID(cmd.ID)
	if err != nil {
		return err
	}
	req := request.UpdateAccountRequest{
		Name:       optional(cmd.Name),
		Type:       optional(cmd.Type),
		Currency:   optional(cmd.Currency),
		Datasource: optional(cmd.Datasource),
		ExternalID: optional(cmd.ExternalID),
	}
	if err := validation.ValidateUpdateAccount(req); err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	account, err := a.Accounts.UpdateAccount(ctx, id, req)
	if err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Updated account #%d %s", account.ID, account.Name))
	return nil
}

type AccountRmCmd struct {
	ID int64 `arg:"" help:"Account id."`
}

func (cmd *AccountRmCmd) Run(ctx context.Context, kctx *kong.Context, globals *Globals) error {
	id, err := positiveID(cmd.ID)
	if err != nil {
		return err
	}

	a, err := globals.open()
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Accounts.DeleteAccount(ctx, id); err != nil {
		return err
	}
	printSuccess(kctx.Stdout, fmt.Sprintf("Deleted account #%d", id))
	return nil
}

func positiveID(id int64) (int64, error) {
	return validation.ValidateID(strconv.FormatInt(id, 10))
}

// optional maps an empty flag to "not given".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
