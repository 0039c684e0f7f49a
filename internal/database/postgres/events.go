package postgres

import (
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/database/postgres/statements"
)

func (p *psql) AddAuthEvent(event database.AuthEvent) (database.AuthEvent, error) {
	row := p.db.QueryRow(statements.AddEvent, event.Type, event.Data, event.Timestamp)

	err := row.Scan(&event.ID)

	return event, err
}

func (p *psql) AddCommandEvent(event database.CommandEvent) (database.CommandEvent, error) {
	row := p.db.QueryRow(statements.AddCommandEvent, event.Issuer, event.Command, event.Location,
		event.ElapsedMS, event.Failed, event.Executed)

	err := row.Scan(&event.ID)

	return event, err
}
