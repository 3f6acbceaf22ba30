package main

import (
	"chat-sync/domain"
	"chat-sync/projection"
	"chat-sync/repositories"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	room := flag.String("room", "", "Room to print, every stored room is listed when empty")
	show := flag.String("show", "messages", "What to print for the room: messages, members, pins or rejections")
	colours := flag.Bool("colours", true, "Highlight tombstones and admins")
	flag.Parse()
	color.Enable = *colours

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	logger := logs.GetLoggerFromLevel(slog.LevelError)
	if err := inspect(os.Stdout, db, logger, domain.RoomID(*room), *show); err != nil {
		log.Fatal(err)
	}
}

func inspect(w io.Writer, db *badger.DB, logger *slog.Logger, roomID domain.RoomID, show string) error {
	projections := repositories.NewProjectionRepository(db, logger)
	if roomID == "" {
		return printRooms(w, projections)
	}
	if show == "rejections" {
		return printRejections(w, repositories.NewRejectionRepository(db, logger, nil), roomID)
	}

	snapshot, err := projections.Load(context.Background(), roomID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("no projection stored for room %q", roomID)
	}
	room := projection.FromSnapshot(*snapshot, nil)
	switch show {
	case "messages":
		printMessages(w, room)
	case "members":
		printMembers(w, room)
	case "pins":
		printPins(w, room)
	default:
		return fmt.Errorf("unknown view %q", show)
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printRooms(w io.Writer, projections repositories.ProjectionRepository) error {
	ids, err := projections.Rooms()
	if err != nil {
		return err
	}
	table := newTable(w, "Room", "Version", "Messages", "Members", "Pins")
	for _, id := range ids {
		snapshot, err := projections.Load(context.Background(), id)
		if err != nil {
			// keep listing the other rooms
			table.Append([]string{string(id), "-", color.Red.Sprint(err.Error()), "", ""})
			continue
		}
		if snapshot == nil {
			continue
		}
		table.Append([]string{
			string(id),
			strconv.FormatUint(snapshot.Version, 10),
			strconv.Itoa(len(snapshot.Messages)),
			strconv.Itoa(len(snapshot.Members)),
			strconv.Itoa(len(snapshot.Pins)),
		})
	}
	table.Render()
	return nil
}

func printMessages(w io.Writer, room *projection.Room) {
	table := newTable(w, "At", "ID", "Sender", "Content", "Reactions", "Receipts", "Deleted for")
	for _, m := range room.Messages() {
		content := describe(m.Content)
		if m.Edited {
			content += " (edited)"
		}
		if m.DeletedForEveryone {
			content = color.Gray.Sprintf("deleted by %s", m.DeletedBy)
		}
		table.Append([]string{
			formatTime(m.Timestamp),
			shortID(string(m.ID)),
			string(m.SenderID),
			content,
			strconv.Itoa(len(m.Reactions)),
			strconv.Itoa(len(m.Receipts)),
			joinUsers(m.DeletedFor),
		})
	}
	table.Render()
}

func printMembers(w io.Writer, room *projection.Room) {
	table := newTable(w, "User", "Role", "Status", "Joined", "Changed", "By", "Past periods")
	for _, rec := range room.Members() {
		role := string(rec.Current.Role)
		if rec.Current.Role == domain.RoleAdmin {
			role = color.Green.Sprint(role)
		}
		status := string(rec.Current.Status)
		if rec.Current.Status == domain.StatusNone {
			status = "pending"
		}
		table.Append([]string{
			string(rec.Current.UserID),
			role,
			status,
			formatTime(rec.Current.JoinedAt),
			formatTime(rec.Current.ChangedAt),
			string(rec.Current.ChangedBy),
			strconv.Itoa(len(rec.History)),
		})
	}
	table.Render()
}

func printPins(w io.Writer, room *projection.Room) {
	table := newTable(w, "Message", "Pinned", "By", "At")
	for _, pin := range room.Pins() {
		table.Append([]string{
			shortID(string(pin.MessageID)),
			strconv.FormatBool(pin.Pinned),
			string(pin.PinnedBy),
			formatTime(pin.PinnedAt),
		})
	}
	table.Render()
}

func printRejections(w io.Writer, rejections repositories.RejectionRepository, roomID domain.RoomID) error {
	items, _, err := rejections.GetRejections(roomID, nil)
	if err != nil {
		return err
	}
	table := newTable(w, "At", "Event", "Kind", "Actor", "Reason")
	for _, r := range items {
		table.Append([]string{
			formatTime(r.At),
			shortID(r.EventID),
			string(r.Kind),
			string(r.Actor),
			color.Yellow.Sprint(r.Reason),
		})
	}
	table.Render()
	return nil
}

func describe(c domain.Content) string {
	if c.Attachment != nil {
		return fmt.Sprintf("[%s] %s", c.Attachment.Kind, c.Attachment.Name)
	}
	return c.Text
}

func formatTime(ts domain.Timestamp) string {
	if ts == 0 {
		return "--:--:--"
	}
	return time.UnixMilli(int64(ts)).Format("15:04:05")
}

// shortID keeps the first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func joinUsers(users map[domain.UserID]domain.Timestamp) string {
	names := make([]string, 0, len(users))
	for u := range users {
		names = append(names, string(u))
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
