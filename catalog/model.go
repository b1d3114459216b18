package catalog

// ColumnType is the logical type of a column; each Dialect maps it to SQL.
type ColumnType int

const (
	Varchar ColumnType = iota
	Integer
	BigInt
	Float
	Timestamp
	Identity // auto incrementing surrogate key
)

// Kind says how a table is used in the star schema.
type Kind string

const (
	KindStaging   Kind = "staging"
	KindDimension Kind = "dimension"
	KindFact      Kind = "fact"
)

// Column is one column of a Table.
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	NotNull    bool
	References string // foreign key target as table(column)
}

// Table describes one warehouse table.
type Table struct {
	Name    string
	Kind    Kind
	Columns []Column
}

// PrimaryKey returns the primary key column name, or "" for staging tables.
func (t Table) PrimaryKey() string {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name
		}
	}
	return ""
}

// ColumnNames returns the column names in declared order.
func (t Table) ColumnNames() []string {
	retval := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		retval[i] = c.Name
	}
	return retval
}

// Table names.
const (
	StagingEvents = "staging_events"
	StagingSongs  = "staging_songs"
	Songplays     = "songplays"
	Users         = "users"
	Songs         = "songs"
	Artists       = "artists"
	Time          = "time"
)

var tables = map[string]Table{
	StagingEvents: {
		Name: StagingEvents,
		Kind: KindStaging,
		Columns: []Column{
			{Name: "artist", Type: Varchar},
			{Name: "auth", Type: Varchar},
			{Name: "firstName", Type: Varchar},
			{Name: "gender", Type: Varchar},
			{Name: "itemInSession", Type: Integer},
			{Name: "lastName", Type: Varchar},
			{Name: "length", Type: Float},
			{Name: "level", Type: Varchar},
			{Name: "location", Type: Varchar},
			{Name: "method", Type: Varchar},
			{Name: "page", Type: Varchar},
			{Name: "registration", Type: Float},
			{Name: "sessionId", Type: Integer},
			{Name: "song", Type: Varchar},
			{Name: "status", Type: Integer},
			{Name: "ts", Type: BigInt},
			{Name: "userAgent", Type: Varchar},
			{Name: "userId", Type: Integer},
		},
	},
	StagingSongs: {
		Name: StagingSongs,
		Kind: KindStaging,
		Columns: []Column{
			{Name: "num_songs", Type: Integer},
			{Name: "artist_id", Type: Varchar},
			{Name: "artist_latitude", Type: Float},
			{Name: "artist_longitude", Type: Float},
			{Name: "artist_location", Type: Varchar},
			{Name: "artist_name", Type: Varchar},
			{Name: "song_id", Type: Varchar},
			{Name: "title", Type: Varchar},
			{Name: "duration", Type: Float},
			{Name: "year", Type: Integer},
		},
	},
	Songplays: {
		Name: Songplays,
		Kind: KindFact,
		Columns: []Column{
			{Name: "songplay_id", Type: Identity, PrimaryKey: true},
			{Name: "start_time", Type: Timestamp, NotNull: true, References: "time(start_time)"},
			{Name: "user_id", Type: Integer, NotNull: true, References: "users(user_id)"},
			{Name: "level", Type: Varchar},
			{Name: "song_id", Type: Varchar, References: "songs(song_id)"},
			{Name: "artist_id", Type: Varchar, References: "artists(artist_id)"},
			{Name: "session_id", Type: Integer},
			{Name: "location", Type: Varchar},
			{Name: "user_agent", Type: Varchar},
		},
	},
	Users: {
		Name: Users,
		Kind: KindDimension,
		Columns: []Column{
			{Name: "user_id", Type: Integer, PrimaryKey: true},
			{Name: "first_name", Type: Varchar},
			{Name: "last_name", Type: Varchar},
			{Name: "gender", Type: Varchar},
			{Name: "level", Type: Varchar},
		},
	},
	Songs: {
		Name: Songs,
		Kind: KindDimension,
		Columns: []Column{
			{Name: "song_id", Type: Varchar, PrimaryKey: true},
			{Name: "title", Type: Varchar},
			{Name: "artist_id", Type: Varchar, NotNull: true, References: "artists(artist_id)"},
			{Name: "year", Type: Integer},
			{Name: "duration", Type: Float},
		},
	},
	Artists: {
		Name: Artists,
		Kind: KindDimension,
		Columns: []Column{
			{Name: "artist_id", Type: Varchar, PrimaryKey: true},
			{Name: "name", Type: Varchar},
			{Name: "location", Type: Varchar},
			{Name: "latitude", Type: Float},
			{Name: "longitude", Type: Float},
		},
	},
	Time: {
		Name: Time,
		Kind: KindDimension,
		Columns: []Column{
			{Name: "start_time", Type: Timestamp, PrimaryKey: true},
			{Name: "hour", Type: Integer},
			{Name: "day", Type: Integer},
			{Name: "week", Type: Integer},
			{Name: "month", Type: Integer},
			{Name: "year", Type: Integer},
			{Name: "weekday", Type: Varchar},
		},
	},
}

// Statement orders. Tables are dropped fact first and created dimension first so
// foreign keys always point at an existing table.
var (
	DropOrder   = []string{StagingEvents, StagingSongs, Songplays, Users, Songs, Artists, Time}
	CreateOrder = []string{StagingEvents, StagingSongs, Time, Users, Artists, Songs, Songplays}
	StageOrder  = []string{StagingEvents, StagingSongs}
	InsertOrder = []string{Users, Artists, Songs, Time, Songplays}
)

// Lookup returns the table called name.
func Lookup(name string) (Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// AnalyticsTables returns the dimension and fact tables in load order.
func AnalyticsTables() []Table {
	retval := make([]Table, 0, len(InsertOrder))
	for _, n := range InsertOrder {
		retval = append(retval, tables[n])
	}
	return retval
}
