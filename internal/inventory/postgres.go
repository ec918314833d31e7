package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGateway implements Gateway against three tables in a Postgres
// database: devices, interfaces, and links (cabled pairs stored as
// (interface_id, peer_interface_id), queried symmetrically so either end of
// a cable can look up the other), plus weathermap_positions for layout.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway wraps an already-connected pool.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

// Connect builds a pool from dsn with the given max connections and returns
// a ready Gateway. Callers own the returned pool's lifetime via Close.
func Connect(ctx context.Context, dsn string, maxConns int32) (*PostgresGateway, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewPostgresGateway(pool), nil
}

// Close releases the underlying connection pool.
func (g *PostgresGateway) Close() {
	g.pool.Close()
}

// Pool returns the underlying connection pool, for health.PostgresCheck.
func (g *PostgresGateway) Pool() *pgxpool.Pool {
	return g.pool
}

func wrapPoolErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return NewUnavailableError(op, err)
}

// AllDevices returns every device in the inventory.
func (g *PostgresGateway) AllDevices(ctx context.Context) ([]Device, error) {
	rows, err := g.pool.Query(ctx, `SELECT id, name, dns_domain FROM devices ORDER BY id`)
	if err != nil {
		return nil, wrapPoolErr("AllDevices", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.Name, &d.DNSDomain); err != nil {
			return nil, wrapPoolErr("AllDevices scan", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPoolErr("AllDevices rows", err)
	}
	return devices, nil
}

// DeviceByFQDN looks up a device by "name.dns_domain".
func (g *PostgresGateway) DeviceByFQDN(ctx context.Context, fqdn string) (Device, error) {
	var d Device
	err := g.pool.QueryRow(ctx,
		`SELECT id, name, dns_domain FROM devices WHERE name || '.' || dns_domain = $1`,
		fqdn,
	).Scan(&d.ID, &d.Name, &d.DNSDomain)
	if err != nil {
		return Device{}, wrapPoolErr("DeviceByFQDN", err)
	}
	return d, nil
}

// DeviceByID looks up a device by its primary key.
func (g *PostgresGateway) DeviceByID(ctx context.Context, id int64) (Device, error) {
	var d Device
	err := g.pool.QueryRow(ctx,
		`SELECT id, name, dns_domain FROM devices WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.DNSDomain)
	if err != nil {
		return Device{}, wrapPoolErr("DeviceByID", err)
	}
	return d, nil
}

// InterfacesOf returns all interfaces of device, annotated with whether each
// has a cabled peer.
func (g *PostgresGateway) InterfacesOf(ctx context.Context, device Device) ([]Interface, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT i.if_index, i.name, i.interface_type, i.speed_override, i.device_id,
		       EXISTS (
		           SELECT 1 FROM links l
		           WHERE l.interface_id = i.id OR l.peer_interface_id = i.id
		       ) AS has_peer
		FROM interfaces i
		WHERE i.device_id = $1
		ORDER BY i.if_index`, device.ID)
	if err != nil {
		return nil, wrapPoolErr("InterfacesOf", err)
	}
	defer rows.Close()

	var ifaces []Interface
	for rows.Next() {
		var iface Interface
		if err := rows.Scan(&iface.Index, &iface.Name, &iface.InterfaceType, &iface.SpeedOverride, &iface.DeviceID, &iface.HasConnectedPeer); err != nil {
			return nil, wrapPoolErr("InterfacesOf scan", err)
		}
		ifaces = append(ifaces, iface)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPoolErr("InterfacesOf rows", err)
	}
	return ifaces, nil
}

// InterfaceByIndex looks up one interface of device by ifIndex.
func (g *PostgresGateway) InterfaceByIndex(ctx context.Context, device Device, index int32) (Interface, error) {
	var iface Interface
	err := g.pool.QueryRow(ctx, `
		SELECT i.if_index, i.name, i.interface_type, i.speed_override, i.device_id,
		       EXISTS (
		           SELECT 1 FROM links l
		           WHERE l.interface_id = i.id OR l.peer_interface_id = i.id
		       ) AS has_peer
		FROM interfaces i
		WHERE i.device_id = $1 AND i.if_index = $2`, device.ID, index,
	).Scan(&iface.Index, &iface.Name, &iface.InterfaceType, &iface.SpeedOverride, &iface.DeviceID, &iface.HasConnectedPeer)
	if err != nil {
		return Interface{}, wrapPoolErr("InterfaceByIndex", err)
	}
	return iface, nil
}

// PeerInterface returns the remote end of iface's cabled link, if any,
// resolving the link symmetrically (iface may be either side of the pair).
func (g *PostgresGateway) PeerInterface(ctx context.Context, iface Interface) (Interface, error) {
	var peer Interface
	err := g.pool.QueryRow(ctx, `
		SELECT p.if_index, p.name, p.interface_type, p.speed_override, p.device_id,
		       EXISTS (
		           SELECT 1 FROM links l2
		           WHERE l2.interface_id = p.id OR l2.peer_interface_id = p.id
		       ) AS has_peer
		FROM interfaces local
		JOIN links l ON l.interface_id = local.id OR l.peer_interface_id = local.id
		JOIN interfaces p ON p.id = (
		    CASE WHEN l.interface_id = local.id THEN l.peer_interface_id ELSE l.interface_id END
		)
		WHERE local.device_id = $1 AND local.if_index = $2
		LIMIT 1`, iface.DeviceID, iface.Index,
	).Scan(&peer.Index, &peer.Name, &peer.InterfaceType, &peer.SpeedOverride, &peer.DeviceID, &peer.HasConnectedPeer)
	if err != nil {
		return Interface{}, wrapPoolErr("PeerInterface", err)
	}
	return peer, nil
}

// WeathermapPosition returns the stored layout position for device.
func (g *PostgresGateway) WeathermapPosition(ctx context.Context, device Device) (WeathermapPosition, error) {
	var pos WeathermapPosition
	err := g.pool.QueryRow(ctx, `
		SELECT x, y, super_node, expanded_by_default
		FROM weathermap_positions
		WHERE device_id = $1`, device.ID,
	).Scan(&pos.X, &pos.Y, &pos.SuperNode, &pos.ExpandedByDefault)
	if err != nil {
		return WeathermapPosition{}, wrapPoolErr("WeathermapPosition", err)
	}
	return pos, nil
}

// SetWeathermapPosition upserts the layout position of the device named by fqdn.
func (g *PostgresGateway) SetWeathermapPosition(ctx context.Context, fqdn string, pos WeathermapPosition) error {
	device, err := g.DeviceByFQDN(ctx, fqdn)
	if err != nil {
		return err
	}
	_, err = g.pool.Exec(ctx, `
		INSERT INTO weathermap_positions (device_id, x, y, super_node, expanded_by_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE SET
		    x = EXCLUDED.x,
		    y = EXCLUDED.y,
		    super_node = EXCLUDED.super_node,
		    expanded_by_default = EXCLUDED.expanded_by_default`,
		device.ID, pos.X, pos.Y, pos.SuperNode, pos.ExpandedByDefault)
	if err != nil {
		return wrapPoolErr("SetWeathermapPosition", err)
	}
	return nil
}
