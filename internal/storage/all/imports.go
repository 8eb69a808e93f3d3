// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. After importing it the following kinds
// are available:
//
//   - "sqlite"   (ontime/internal/storage/sqlite)
//   - "postgres" (ontime/internal/storage/postgres)
//   - "mssql"    (ontime/internal/storage/mssql)
//
// A binary that needs only a subset can import the backend packages directly
// instead.
package all

import (
	_ "ontime/internal/storage/mssql"
	_ "ontime/internal/storage/postgres"
	_ "ontime/internal/storage/sqlite"
)
