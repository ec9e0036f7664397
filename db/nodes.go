package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/attpc/daqdash/model"
)

func (s *SQLStorage) ECCServers(ctx context.Context) ([]model.ECCServer, error) {
	rows, err := s.db.QueryContext(ctx,
		`select name, address, port, online, checked_at from ecc_servers order by name`)
	if err != nil {
		return nil, fmt.Errorf("could not query ECC servers: %w", err)
	}

	defer rows.Close()

	result := make([]model.ECCServer, 0)

	for rows.Next() {
		var (
			server  model.ECCServer
			checked sql.NullTime
		)

		if err := rows.Scan(&server.Name, &server.Address, &server.Port, &server.Online, &checked); err != nil {
			return nil, fmt.Errorf("could not scan ECC server: %w", err)
		}

		server.CheckedAt = nullTime(checked)
		result = append(result, server)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read ECC servers: %w", err)
	}

	return result, nil
}

// SaveECCServer registers a server or updates the address of an existing one.
func (s *SQLStorage) SaveECCServer(ctx context.Context, server model.ECCServer) error {
	_, err := s.db.ExecContext(ctx,
		`insert into ecc_servers (name, address, port) values ($1, $2, $3)
		on conflict (name) do update set address = excluded.address, port = excluded.port`,
		server.Name, server.Address, server.Port)
	if err != nil {
		return fmt.Errorf("could not save ECC server %s: %w", server.Name, err)
	}

	return nil
}

func (s *SQLStorage) SetECCServerOnline(ctx context.Context, name string, online bool, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update ecc_servers set online = $1, checked_at = $2 where name = $3`,
		online, at.UTC(), name)
	if err != nil {
		return fmt.Errorf("could not update ECC server %s: %w", name, err)
	}

	return expectOneRow(res, "ECC server", name)
}

func (s *SQLStorage) DataRouters(ctx context.Context) ([]model.DataRouter, error) {
	rows, err := s.db.QueryContext(ctx,
		`select name, address, port, router_type, online, staging_clean, checked_at
		from data_routers order by name`)
	if err != nil {
		return nil, fmt.Errorf("could not query data routers: %w", err)
	}

	defer rows.Close()

	result := make([]model.DataRouter, 0)

	for rows.Next() {
		var (
			router     model.DataRouter
			routerType string
			checked    sql.NullTime
		)

		err := rows.Scan(&router.Name, &router.Address, &router.Port, &routerType,
			&router.Online, &router.StagingClean, &checked)
		if err != nil {
			return nil, fmt.Errorf("could not scan data router: %w", err)
		}

		router.Type = model.RouterType(routerType)
		router.CheckedAt = nullTime(checked)
		result = append(result, router)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read data routers: %w", err)
	}

	return result, nil
}

// SaveDataRouter registers a router or updates the connection settings of an existing one.
func (s *SQLStorage) SaveDataRouter(ctx context.Context, router model.DataRouter) error {
	_, err := s.db.ExecContext(ctx,
		`insert into data_routers (name, address, port, router_type) values ($1, $2, $3, $4)
		on conflict (name) do update set address = excluded.address, port = excluded.port,
		router_type = excluded.router_type`,
		router.Name, router.Address, router.Port, string(router.Type))
	if err != nil {
		return fmt.Errorf("could not save data router %s: %w", router.Name, err)
	}

	return nil
}

func (s *SQLStorage) SetDataRouterStatus(ctx context.Context, name string, status model.RouterStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update data_routers set online = $1, staging_clean = $2, checked_at = $3 where name = $4`,
		status.Online, status.StagingClean, at.UTC(), name)
	if err != nil {
		return fmt.Errorf("could not update data router %s: %w", name, err)
	}

	return expectOneRow(res, "data router", name)
}

func expectOneRow(res sql.Result, kind, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not check update of %s %s: %w", kind, name, err)
	}

	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, name, ErrNotFound)
	}

	return nil
}
