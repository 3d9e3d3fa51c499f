// Package devstack starts the local development dependencies (MariaDB and
// Authorizer) with testcontainers. It is used by cmd/devstack as a
// standalone executable and by integration tests.
// Expects environment variables to be loaded from .env files.
package devstack

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/migralog/migralog/data"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Containers holds the running development dependencies.
type Containers struct {
	Network             *testcontainers.DockerNetwork
	DBContainer         testcontainers.Container
	AuthorizerContainer testcontainers.Container

	// Host-mapped endpoints for processes outside the container network.
	DBAddr    string
	AuthzAddr string
}

// Terminate tears everything down in reverse start order.
func (dc *Containers) Terminate(t *testing.T) {
	ctx := context.Background()
	if dc.AuthorizerContainer != nil {
		if err := dc.AuthorizerContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Authorizer: %v", err)
		}
	}
	if dc.DBContainer != nil {
		if err := dc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate MariaDB: %v", err)
		}
	}
	if dc.Network != nil {
		if err := dc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Create starts the MariaDB and Authorizer containers and initializes the
// application database from the embedded DDL.
func Create(t *testing.T) (*Containers, error) {
	ctx := context.Background()
	containers := &Containers{}

	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	containers.Network = nw
	networkName := nw.Name

	dbNetworkName := envOr("DB_HOST", "mariadb")
	tcpDbPort, err := nat.NewPort("tcp", envOr("DB_PORT", "3306"))
	if err != nil {
		containers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        envOr("DB_IMAGE", "mariadb:11"),
			ExposedPorts: []string{string(tcpDbPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": envOr("DB_ROOT_PASSWORD", "devroot"),
				"MYSQL_DATABASE":      envOr("DB_DATABASE", "migralog"),
				"MYSQL_USER":          envOr("DB_USER", "migralog"),
				"MYSQL_PASSWORD":      envOr("DB_PASSWORD", "migralog"),
			},
			WaitingFor: wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {dbNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		containers.Terminate(t)
		exitWithError(t, err, "Failed to start MariaDB")
	}
	containers.DBContainer = dbContainer

	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDbPort)
	containers.DBAddr = fmt.Sprintf("%s:%s", dbHost, dbPort.Port())
	if err := initMariaDB(t, containers, dbHost, dbPort); err != nil {
		containers.Terminate(t)
		exitWithError(t, err, "Failed to initialize database")
	}

	authzNetworkName := "authorizer"
	tcpAuthzPort, err := nat.NewPort("tcp", envOr("AUTHZ_PORT", "8080"))
	if err != nil {
		containers.Terminate(t)
		exitWithError(t, err, "Failed to create Authorizer port")
	}
	authzDbConnection := fmt.Sprintf("root:%s@tcp(%s:%s)/%s",
		envOr("DB_ROOT_PASSWORD", "devroot"), dbNetworkName, envOr("DB_PORT", "3306"),
		envOr("AUTHZ_DATABASE", "authorizer"))
	authorizerContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        envOr("AUTHZ_IMAGE", "lakhansamani/authorizer:1.4.4"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          envOr("AUTHZ_PORT", "8080"),
				"DATABASE_TYPE": "mariadb",
				"DATABASE_NAME": envOr("AUTHZ_DATABASE", "authorizer"),
				"DATABASE_URL":  authzDbConnection,
				"ADMIN_SECRET":  envOr("AUTHZ_ADMIN_SECRET", "devsecret"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     "info",
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {authzNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		containers.Terminate(t)
		exitWithError(t, err, "Failed to start Authorizer")
	}
	containers.AuthorizerContainer = authorizerContainer

	authzHost, _ := authorizerContainer.Host(ctx)
	authzPort, _ := authorizerContainer.MappedPort(ctx, tcpAuthzPort)
	containers.AuthzAddr = fmt.Sprintf("%s:%s", authzHost, authzPort.Port())

	logMessage(t, "DB_ADDR=%s", containers.DBAddr)
	logMessage(t, "AUTHZ_URL=http://%s", containers.AuthzAddr)
	logMessage(t, "Development containers started successfully")
	return containers, nil
}

func initMariaDB(t *testing.T, containers *Containers, dbHost string, dbPort nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/",
		envOr("DB_ROOT_PASSWORD", "devroot"), dbHost, dbPort.Port()))
	if err != nil {
		return err
	}
	defer db.Close()

	// Wait for the server to accept connections.
	for i := 0; i < 30; i++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
	}

	appDB := envOr("DB_DATABASE", "migralog")
	authzDB := envOr("AUTHZ_DATABASE", "authorizer")
	setup := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", appDB),
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", authzDB),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'",
			envOr("DB_USER", "migralog"), envOr("DB_PASSWORD", "migralog")),
	}
	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	if err := executeSQL(db, data.InitdbMariaDBTables); err != nil {
		return fmt.Errorf("tables init sql: %w", err)
	}
	if err := executeSQL(db, data.InitdbMariaDBPrivileges); err != nil {
		return fmt.Errorf("privileges init sql: %w", err)
	}
	return nil
}

// executeSQL runs a multi-statement script, one statement at a time.
func executeSQL(db *sql.DB, script string) error {
	lines := strings.Split(script, "\n")

	var ncls []string
	for _, l := range lines {
		ncls = append(ncls, excludeComment(l))
	}

	joined := strings.Join(ncls, "")
	queries := strings.Split(joined, ";")
	queries = queries[:len(queries)-1]

	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}
	return nil
}

// excludeComment strips a trailing "--" comment, respecting quoted strings.
func excludeComment(line string) string {
	d := "\""
	s := "'"
	c := "--"

	var nc string
	ck := line
	mx := len(line) + 1

	for {
		if len(ck) == 0 {
			return nc
		}

		di := strings.Index(ck, d)
		si := strings.Index(ck, s)
		ci := strings.Index(ck, c)

		if di < 0 {
			di = mx
		}
		if si < 0 {
			si = mx
		}
		if ci < 0 {
			ci = mx
		}

		var ei int

		if di < si && di < ci {
			nc += ck[:di+1]
			ck = ck[di+1:]
			ei = strings.Index(ck, d)
		} else if si < di && si < ci {
			nc += ck[:si+1]
			ck = ck[si+1:]
			ei = strings.Index(ck, s)
		} else if ci < di && ci < si {
			return nc + ck[:ci]
		} else {
			return nc + ck
		}

		nc += ck[:ei+1]
		ck = ck[ei+1:]
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
