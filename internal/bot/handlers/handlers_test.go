package handlers

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/conversation"
	"github.com/hray3182/Recuerdame/internal/database"
	"github.com/hray3182/Recuerdame/internal/extract"
	"github.com/hray3182/Recuerdame/internal/format"
	"github.com/hray3182/Recuerdame/internal/models"
	"github.com/hray3182/Recuerdame/internal/repository"
)

const chat int64 = 42

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type countingNudger struct{ n int }

func (c *countingNudger) Notify() { c.n++ }

type env struct {
	h      *Handlers
	api    *fakeSender
	store  *repository.SQLiteReminderRepository
	conv   *conversation.Store
	nudger *countingNudger
	loc    *time.Location
	now    time.Time
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newEnv wires handlers over an in-memory store with the clock stopped at
// Tuesday 2026-01-20 10:00 in Bogotá.
func newEnv(t *testing.T) *env {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2026, 1, 20, 10, 0, 0, 0, loc)
	extractor, err := extract.New(loc, "09:00", func() time.Time { return now })
	if err != nil {
		t.Fatalf("extract.New: %v", err)
	}

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, "sqlite::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.MigrateSQLite(ctx, db, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	e := &env{
		api:    &fakeSender{},
		store:  repository.NewSQLiteReminderRepository(db),
		conv:   conversation.NewStore(),
		nudger: &countingNudger{},
		loc:    loc,
		now:    now,
	}
	e.h = New(e.api, e.store, extractor, e.conv, e.nudger, quietLogger())
	return e
}

func (e *env) say(t *testing.T, text string) string {
	t.Helper()
	return e.h.Respond(context.Background(), chat, text).Text
}

func TestCreateWithDate(t *testing.T) {
	e := newEnv(t)

	got := e.say(t, `Recuérdame "botar basura" en 10 minutos`)
	want := "📌 Guardado: #1\n⏰ 2026-01-20 10:10\n🧾 botar basura"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	got = e.say(t, "Recuérdame pagar 1.000 pesos a Daniela el 1 de febrero")
	want = "📌 Guardado: #2\n⏰ 2026-02-01 09:00\n🧾 pagar a Daniela\n💸 Monto: $1.000 COP"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	if e.nudger.n != 0 {
		t.Errorf("future reminders nudged the scheduler %d times", e.nudger.n)
	}
}

func TestAskForDateThenCreate(t *testing.T) {
	e := newEnv(t)

	got := e.say(t, "Recuérdame llamar a mamá")
	if want := "Entendí esto:\n🧾 llamar a mamá\n\n" + askDateText; got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
	if c, ok := e.conv.Peek(chat); !ok || c.Kind != conversation.AwaitingDateForNew || c.Task != "llamar a mamá" {
		t.Fatalf("continuation = %+v, %v", c, ok)
	}

	// a list request is answered without dropping the question
	if got := e.say(t, "lista"); got != "✅ No hay recordatorios para mostrar." {
		t.Errorf("list reply = %q", got)
	}
	if _, ok := e.conv.Peek(chat); !ok {
		t.Fatal("continuation dropped by list request")
	}

	if got := e.say(t, "qué?"); got != dateNotUnderstood {
		t.Errorf("non-date reply = %q", got)
	}
	if _, ok := e.conv.Peek(chat); !ok {
		t.Fatal("continuation dropped by non-date reply")
	}

	got = e.say(t, "mañana 7pm")
	if want := "📌 Guardado: #1\n⏰ 2026-01-21 19:00\n🧾 llamar a mamá"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if _, ok := e.conv.Peek(chat); ok {
		t.Error("continuation still pending after create")
	}
}

func TestPendingQuestionLetsMonthSumThrough(t *testing.T) {
	e := newEnv(t)
	e.say(t, "Recuérdame pagar 1.000 pesos a Daniela el 20 de febrero")
	e.say(t, "Recuérdame llamar a mamá")

	got := e.say(t, "suma segunda quincena de febrero")
	if !strings.Contains(got, "💸 Pagos en segunda quincena de febrero 2026:") || !strings.Contains(got, "🔢 Total: $1.000 COP") {
		t.Errorf("sum reply = %q", got)
	}
	if c, ok := e.conv.Peek(chat); !ok || c.Task != "llamar a mamá" {
		t.Fatalf("continuation = %+v, %v", c, ok)
	}

	got = e.say(t, "en marzo")
	if want := "📌 Guardado: #2\n⏰ 2026-03-20 09:00\n🧾 llamar a mamá"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestCreateWithPartOfDayAndMonth(t *testing.T) {
	e := newEnv(t)

	got := e.say(t, "Recuérdame sacar al perro esta noche a las 9")
	if want := "📌 Guardado: #1\n⏰ 2026-01-20 21:00\n🧾 sacar al perro"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	got = e.say(t, "pagar 1.000 en febrero")
	if want := "📌 Guardado: #2\n⏰ 2026-02-20 09:00\n🧾 pagar\n💸 Monto: $1.000 COP"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if e.nudger.n != 0 {
		t.Errorf("future reminders nudged the scheduler %d times", e.nudger.n)
	}
}

func TestAskForDateKeepsAmount(t *testing.T) {
	e := newEnv(t)

	got := e.say(t, "debo 50.000 a Juan")
	if !strings.Contains(got, "💸 $50.000 COP") {
		t.Fatalf("reply = %q", got)
	}
	got = e.say(t, "2026-02-03 07:00")
	if !strings.Contains(got, "⏰ 2026-02-03 07:00") || !strings.Contains(got, "💸 Monto: $50.000 COP") {
		t.Errorf("reply = %q", got)
	}

	rows, err := e.store.List(context.Background(), chat, "", 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("stored = %d, %v", len(rows), err)
	}
	if rows[0].Category != models.CategoryPago || rows[0].Amount == nil || *rows[0].Amount != 50000 {
		t.Errorf("stored = %+v", rows[0])
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	e.say(t, `Recuérdame "uno" en 10 minutos`)
	e.say(t, `Recuérdame "dos" en 20 minutos`)

	if got, want := e.say(t, "borrar 1, 99"), "🗑️ Eliminados: #1\n⚠️ No encontrados: #99"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if got, want := e.say(t, "eliminar #1"), "⚠️ No encontrados: #1"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	got := e.say(t, "toda la lista")
	if strings.Contains(got, "uno") || !strings.Contains(got, "#2") {
		t.Errorf("list after delete = %q", got)
	}
}

func TestConfirm(t *testing.T) {
	e := newEnv(t)

	if got := e.say(t, "ya"); got != noPendingToMark {
		t.Errorf("empty confirm = %q", got)
	}

	e.say(t, `Recuérdame "después" en 2 horas`)
	e.say(t, `Recuérdame "primero" en 10 minutos`)
	if got, want := e.say(t, "listo"), "✅ Hecho: #2 — primero"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	got := e.say(t, "lista completa")
	if !strings.Contains(got, "✅ 🔔 #2") || !strings.Contains(got, "⏳ 🔔 #1") {
		t.Errorf("full list = %q", got)
	}
	if got := e.say(t, "lista"); strings.Contains(got, "#2") {
		t.Errorf("pending list shows done reminder: %q", got)
	}
}

func TestSumAndPeriodList(t *testing.T) {
	e := newEnv(t)
	e.say(t, "Recuérdame pagar 1.000 pesos a Daniela el 1 de febrero")
	e.say(t, "pago del internet 80.000 el 5 de febrero a las 3pm")
	e.say(t, "Recuérdame revisar el carro el 3 de febrero")

	got := e.say(t, "suma primera quincena de febrero")
	for _, want := range []string{
		"💸 Pagos en primera quincena de febrero 2026:",
		"#1 — 2026-02-01 09:00 — $1.000 COP — pagar a Daniela",
		"#2 — 2026-02-05 15:00 — $80.000 COP",
		"🔢 Total: $81.000 COP",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("sum reply missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "carro") {
		t.Errorf("sum lists a general reminder:\n%s", got)
	}

	if got := e.say(t, "sumame cuanto debo pagar esta quincena"); got != "✅ No veo pagos en esta segunda quincena." {
		t.Errorf("current sum = %q", got)
	}
	if got := e.say(t, "lista de la quincena"); got != "✅ No hay recordatorios para mostrar." {
		t.Errorf("period list = %q", got)
	}
}

func TestUnrecognized(t *testing.T) {
	e := newEnv(t)
	if got := e.say(t, "hola"); got != fallbackText {
		t.Errorf("reply = %q", got)
	}
	if got := e.say(t, "comandos"); got != helpText {
		t.Errorf("help = %q", got)
	}
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.say(t, `Recuérdame "regar plantas" en 10 minutos`)

	got := e.h.HandleAction(ctx, chat, format.ActionSnooze, 1)
	if want := "🕐 Listo. Reprogramado #1 para dentro de 1 hora.\n⏰ 2026-01-20 11:00"; got.Text != want || got.Edit {
		t.Errorf("snooze = %+v", got)
	}

	got = e.h.HandleAction(ctx, chat, format.ActionReschedule, 1)
	if got.Text != reschedulePrompt {
		t.Errorf("reschedule prompt = %q", got.Text)
	}
	if c, ok := e.conv.Peek(chat); !ok || c.Kind != conversation.AwaitingDateForReschedule || c.ReminderID != 1 {
		t.Fatalf("continuation = %+v, %v", c, ok)
	}
	if got, want := e.say(t, "en 30 minutos"), "🔁 Listo. Reprogramado #1\n⏰ 2026-01-20 10:30"; got != want {
		t.Errorf("reschedule reply = %q, want %q", got, want)
	}

	got = e.h.HandleAction(ctx, chat, format.ActionDone, 1)
	if want := "✅ Listo, marcado como hecho: #1 — regar plantas"; got.Text != want || !got.Edit {
		t.Errorf("done = %+v", got)
	}
	got = e.h.HandleAction(ctx, chat, format.ActionDone, 1)
	if got.Text != alreadyResolved || !got.Edit {
		t.Errorf("second done = %+v", got)
	}

	if got := e.h.HandleAction(ctx, chat, format.ActionSnooze, 99); got.Text != reminderNotFound {
		t.Errorf("snooze missing = %q", got.Text)
	}
}

func TestNudgeIfDue(t *testing.T) {
	e := newEnv(t)
	e.h.nudgeIfDue(e.now.Add(time.Minute))
	if e.nudger.n != 0 {
		t.Fatalf("future due nudged")
	}
	e.h.nudgeIfDue(e.now)
	e.h.nudgeIfDue(e.now.Add(-time.Hour))
	if e.nudger.n != 2 {
		t.Errorf("nudges = %d, want 2", e.nudger.n)
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if got := e.h.Command(ctx, chat, "start").Text; got != startText {
		t.Errorf("start = %q", got)
	}
	if got := e.h.Command(ctx, chat, "sumq").Text; got != "✅ No veo pagos en esta segunda quincena." {
		t.Errorf("sumq = %q", got)
	}
	if got := e.h.Command(ctx, chat, "nope").Text; got != fallbackText {
		t.Errorf("unknown = %q", got)
	}
}

func TestHandleMessageSendsEntities(t *testing.T) {
	e := newEnv(t)
	e.h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "comandos", Chat: &tgbotapi.Chat{ID: chat}})

	if len(e.api.sent) != 1 {
		t.Fatalf("sent %d messages", len(e.api.sent))
	}
	msg, ok := e.api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T", e.api.sent[0])
	}
	if msg.ChatID != chat || strings.Contains(msg.Text, "**") {
		t.Errorf("message = %q to %d", msg.Text, msg.ChatID)
	}
	if len(msg.Entities) == 0 || msg.Entities[0].Type != "bold" || msg.Entities[0].Offset != 0 {
		t.Errorf("entities = %+v", msg.Entities)
	}
}

func TestHandleMessageSendsTaskLiterally(t *testing.T) {
	e := newEnv(t)
	e.h.HandleMessage(context.Background(), &tgbotapi.Message{Text: "Recuérdame \"comprar `pan` y **leche**\" mañana", Chat: &tgbotapi.Chat{ID: chat}})

	if len(e.api.sent) != 1 {
		t.Fatalf("sent %d messages", len(e.api.sent))
	}
	msg := e.api.sent[0].(tgbotapi.MessageConfig)
	if !strings.HasSuffix(msg.Text, "🧾 comprar `pan` y **leche**") || len(msg.Entities) != 0 {
		t.Errorf("message = %q, entities %+v", msg.Text, msg.Entities)
	}
}

func TestHandleCallbackQueryEdits(t *testing.T) {
	e := newEnv(t)
	e.say(t, `Recuérdame "sacar al perro" en 10 minutos`)

	e.h.HandleCallbackQuery(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    "done:1",
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: chat}},
	})

	if len(e.api.requests) != 1 {
		t.Errorf("callback answered %d times", len(e.api.requests))
	}
	if len(e.api.sent) != 1 {
		t.Fatalf("sent %d", len(e.api.sent))
	}
	edit, ok := e.api.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("sent %T, want an edit", e.api.sent[0])
	}
	if edit.MessageID != 77 || !strings.Contains(edit.Text, "sacar al perro") {
		t.Errorf("edit = %+v", edit)
	}

	// bad data is answered but otherwise ignored
	e.h.HandleCallbackQuery(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb-2",
		Data:    "explode:1",
		Message: &tgbotapi.Message{MessageID: 78, Chat: &tgbotapi.Chat{ID: chat}},
	})
	if len(e.api.requests) != 2 || len(e.api.sent) != 1 {
		t.Errorf("requests = %d, sent = %d", len(e.api.requests), len(e.api.sent))
	}
}

type brokenStore struct{ ReminderStore }

var errDown = errors.New("database is down")

func (brokenStore) List(context.Context, int64, models.Status, int) ([]*models.Reminder, error) {
	return nil, errDown
}

func (brokenStore) SoftDelete(context.Context, int64, int64) (*models.Reminder, error) {
	return nil, errDown
}

func (brokenStore) Create(context.Context, *models.Reminder) error {
	return errDown
}

func TestStoreFailures(t *testing.T) {
	e := newEnv(t)
	e.h.store = brokenStore{}

	for _, text := range []string{"lista", "borrar 1,2", `Recuérdame "x y z" en 5 minutos`} {
		if got := e.say(t, text); got != genericFailure {
			t.Errorf("%q = %q", text, got)
		}
	}
}
