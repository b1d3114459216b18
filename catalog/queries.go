package catalog

import (
	"fmt"
	"strings"
)

// Transform queries reference tables as ${name}; Catalog swaps in schema qualified names.
// Every query reads only NextSong events for users, time and songplays.

func insertUsers(_ Dialect) string {
	return `INSERT INTO ${users} (user_id, first_name, last_name, gender, level)
SELECT user_id, first_name, last_name, gender, level
FROM (
    SELECT userId AS user_id,
           firstName AS first_name,
           lastName AS last_name,
           gender,
           level,
           ROW_NUMBER() OVER (PARTITION BY userId ORDER BY ts DESC) AS rn
    FROM ${staging_events}
    WHERE page = 'NextSong' AND userId IS NOT NULL
) latest
WHERE rn = 1`
}

func insertArtists(_ Dialect) string {
	return `INSERT INTO ${artists} (artist_id, name, location, latitude, longitude)
SELECT artist_id, name, location, latitude, longitude
FROM (
    SELECT artist_id,
           artist_name AS name,
           artist_location AS location,
           artist_latitude AS latitude,
           artist_longitude AS longitude,
           ROW_NUMBER() OVER (PARTITION BY artist_id ORDER BY artist_name, song_id) AS rn
    FROM ${staging_songs}
    WHERE artist_id IS NOT NULL
) a
WHERE rn = 1`
}

func insertSongs(_ Dialect) string {
	return `INSERT INTO ${songs} (song_id, title, artist_id, year, duration)
SELECT song_id, title, artist_id, year, duration
FROM (
    SELECT song_id,
           title,
           artist_id,
           year,
           duration,
           ROW_NUMBER() OVER (PARTITION BY song_id ORDER BY artist_id, title) AS rn
    FROM ${staging_songs}
    WHERE song_id IS NOT NULL AND artist_id IS NOT NULL
) s
WHERE rn = 1`
}

func insertTime(d Dialect) string {
	parts := []string{"hour", "day", "week", "month", "year", "weekday"}
	cols := make([]string, len(parts))
	for i, p := range parts {
		cols[i] = fmt.Sprintf("       %v AS %v", d.DatePart(p, "start_time"), p)
	}
	return fmt.Sprintf(`INSERT INTO ${time} (start_time, hour, day, week, month, year, weekday)
SELECT start_time,
%v
FROM (
    SELECT DISTINCT %v AS start_time
    FROM ${staging_events}
    WHERE page = 'NextSong' AND ts IS NOT NULL
) t`, strings.Join(cols, ",\n"), d.EpochMillisToTimestamp("ts"))
}

func insertSongplays(d Dialect) string {
	return fmt.Sprintf(`INSERT INTO ${songplays} (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT start_time, user_id, level, song_id, artist_id, session_id, location, user_agent
FROM (
    SELECT %v AS start_time,
           se.userId AS user_id,
           se.level,
           ss.song_id,
           ss.artist_id,
           se.sessionId AS session_id,
           se.location,
           se.userAgent AS user_agent,
           ROW_NUMBER() OVER (PARTITION BY se.ts, se.userId, se.sessionId ORDER BY ss.song_id, ss.artist_id) AS rn
    FROM ${staging_events} se
    JOIN ${staging_songs} ss ON se.song = ss.title AND se.artist = ss.artist_name
    WHERE se.page = 'NextSong' AND se.userId IS NOT NULL AND se.ts IS NOT NULL
) sp
WHERE rn = 1`, d.EpochMillisToTimestamp("se.ts"))
}

// insertBuilders all take the dialect; only time and songplays depend on it.
var insertBuilders = map[string]func(Dialect) string{
	Users:     insertUsers,
	Artists:   insertArtists,
	Songs:     insertSongs,
	Time:      insertTime,
	Songplays: insertSongplays,
}
