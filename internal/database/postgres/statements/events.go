package statements

const (
	AddEvent = `
		INSERT INTO auth_events (event_type, event_data, event_time) 
		VALUES ($1, $2, $3) RETURNING id;
	`

	AddCommandEvent = `
		INSERT INTO command_events (issuer, command, location, elapsed_ms, failed, executed) 
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;
	`
)
