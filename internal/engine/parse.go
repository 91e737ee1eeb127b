package engine

import (
	"strconv"
	"strings"

	"github.com/benediktms/chesstty/internal/models"
)

// parseLine classifies one engine stdout line into an Event. Lines the
// protocol does not recognize come back as debug events.
func parseLine(line string) Event {
	line = strings.TrimSpace(line)
	switch {
	case line == "uciok":
		return Event{Kind: EventUCIOk}
	case line == "readyok":
		return Event{Kind: EventReadyOk}
	case strings.HasPrefix(line, "id "):
		return parseID(line)
	case strings.HasPrefix(line, "bestmove"):
		return parseBestMove(line)
	case strings.HasPrefix(line, "info "):
		return parseInfo(line)
	default:
		return Event{Kind: EventDebug, Direction: DirFromEngine, Line: line}
	}
}

func parseID(line string) Event {
	rest := strings.TrimPrefix(line, "id ")
	name, value, found := strings.Cut(rest, " ")
	if !found {
		return Event{Kind: EventDebug, Direction: DirFromEngine, Line: line}
	}
	return Event{Kind: EventID, Name: name, Value: value}
}

func parseBestMove(line string) Event {
	fields := strings.Fields(line)
	ev := Event{Kind: EventBestMove}
	if len(fields) >= 2 {
		ev.BestMove = fields[1]
	}
	for i := 2; i+1 < len(fields); i++ {
		if fields[i] == "ponder" {
			ev.Ponder = fields[i+1]
		}
	}
	if ev.BestMove == "" || ev.BestMove == "(none)" {
		return Event{Kind: EventError, Err: "engine returned no best move"}
	}
	return ev
}

func parseInfo(line string) Event {
	fields := strings.Fields(line)
	info := &models.EngineAnalysis{}
	parsed := false

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if v, ok := atoi(fields, i+1); ok {
				info.Depth = &v
				parsed = true
			}
			i++
		case "seldepth":
			if v, ok := atoi(fields, i+1); ok {
				info.SelDepth = &v
				parsed = true
			}
			i++
		case "time":
			if v, ok := atoi64(fields, i+1); ok {
				info.TimeMs = &v
				parsed = true
			}
			i++
		case "nodes":
			if v, ok := atoi64(fields, i+1); ok {
				info.Nodes = &v
				parsed = true
			}
			i++
		case "nps":
			if v, ok := atoi64(fields, i+1); ok {
				info.NPS = &v
				parsed = true
			}
			i++
		case "multipv", "currmove", "currmovenumber", "hashfull":
			// Recognized but not carried in the analysis snapshot.
			i++
		case "score":
			if i+2 < len(fields) {
				if v, err := strconv.Atoi(fields[i+2]); err == nil {
					var s models.Score
					switch fields[i+1] {
					case "cp":
						s = models.Centipawns(v)
					case "mate":
						s = models.Mate(v)
					default:
						continue
					}
					info.Score = &s
					parsed = true
				}
			}
			i += 2
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			parsed = true
			i = len(fields)
		}
	}

	if !parsed {
		return Event{Kind: EventDebug, Direction: DirFromEngine, Line: line}
	}
	return Event{Kind: EventInfo, Info: info}
}

func atoi(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return v, true
}

func atoi64(fields []string, i int) (int64, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseInt(fields[i], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
