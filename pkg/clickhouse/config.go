package clickhouse

import (
	"net"
	"strconv"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

// Config describes the connection pool. Zero timeouts and pool sizes keep
// the driver defaults.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	UseHTTP bool
	// AsyncInsert lets the server buffer inserts; WaitForAsync makes the
	// insert return only once the buffer is flushed.
	AsyncInsert  bool
	WaitForAsync bool

	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	MaxExecutionTime time.Duration
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// options translates c into driver options. Query limits travel as server
// settings so they apply to every statement of the pool.
func (c Config) options() *ch.Options {
	opts := &ch.Options{
		Addr:        []string{c.addr()},
		Protocol:    ch.Native,
		Auth:        ch.Auth{Database: c.Database, Username: c.User, Password: c.Password},
		DialTimeout: c.DialTimeout,
		ReadTimeout: c.ReadTimeout,
		Compression: &ch.Compression{Method: ch.CompressionLZ4},
		Settings:    ch.Settings{},
	}
	if c.UseHTTP {
		opts.Protocol = ch.HTTP
	}
	if c.MaxExecutionTime > 0 {
		opts.Settings["max_execution_time"] = int(c.MaxExecutionTime.Seconds())
	}
	if c.AsyncInsert {
		opts.Settings["async_insert"] = 1
		if c.WaitForAsync {
			opts.Settings["wait_for_async_insert"] = 1
		}
	}
	return opts
}
