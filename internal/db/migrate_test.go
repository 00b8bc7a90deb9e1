package db

import (
	"reflect"
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("LoadSorted", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected embedded migrations")
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i-1].Version >= migrations[i].Version {
				t.Errorf("migrations out of order: %d before %d", migrations[i-1].Version, migrations[i].Version)
			}
		}
		if migrations[0].Name != "0001_create_eightball.sql" {
			t.Errorf("expected first migration to create the table, got %s", migrations[0].Name)
		}
	})

	t.Run("SplitStatements", func(t *testing.T) {
		sql := `-- header
CREATE TABLE a (id INT); -- trailing
-- middle

CREATE INDEX a_idx ON a (id);
`
		want := []string{"CREATE TABLE a (id INT)", "CREATE INDEX a_idx ON a (id)"}
		if got := splitStatements(sql); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("SplitStatementsKeepsLiterals", func(t *testing.T) {
		sql := `INSERT INTO eightball (response) VALUES ('Maybe; ask later'), ('Don''t -- really'); -- done
INSERT INTO eightball (response) VALUES ('x;');`
		want := []string{
			"INSERT INTO eightball (response) VALUES ('Maybe; ask later'), ('Don''t -- really')",
			"INSERT INTO eightball (response) VALUES ('x;')",
		}
		if got := splitStatements(sql); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}
