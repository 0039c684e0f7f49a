package statements

const (
	CreateAuthEventsTable = `
		CREATE TABLE IF NOT EXISTS auth_events (
			id bigserial,
			event_type text NOT NULL,
			event_data text NOT NULL,
			event_time timestamp NOT NULL
		);
	`

	CreateCommandEventsTable = `
		CREATE TABLE IF NOT EXISTS command_events (
			id bigserial,
			issuer text NOT NULL,
			command text NOT NULL,
			location text NOT NULL,
			elapsed_ms bigint NOT NULL,
			failed boolean DEFAULT FALSE,
			executed timestamp NOT NULL
		);
	`
)
