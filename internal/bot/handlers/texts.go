package handlers

const (
	startText = `**✅ Bot de recordatorios listo.**

Ejemplos:
• Recuérdame "botar basura" en 10 minutos
• Recuérdame pagar 1.000 pesos a Daniela el 1 de febrero

Frases útiles:
• lista  (pendientes)
• toda la lista  (todo)
• lista de la quincena
• borrar 4,5,6
• comandos
• sumame cuanto debo pagar esta quincena`

	helpText = `**📌 Comandos disponibles (sin slash):**

**🗓️ Listas:**
• lista / generar lista / genera la lista → pendientes
• toda la lista / lista completa → todo
• lista de la quincena / toda la quincena → todo en la quincena actual

**🗑️ Borrar:**
• borrar 4
• borrar 4,5,6

**💸 Sumas:**
• sumame cuanto debo pagar esta quincena
• suma segunda quincena de febrero

**⏰ Recordatorios:**
• Recuérdame "botar basura" en 10 minutos
• Recuérdame pagar 1.000 pesos a Daniela el 1 de febrero

También: /list, /listall, /sumq`

	fallbackText = `Te leo 👀
Prueba:
• lista
• toda la lista
• lista de la quincena
• borrar 4,5,6
• comandos
• Recuérdame "botar basura" en 10 minutos
• Recuérdame pagar 1.000 pesos a Daniela el 1 de febrero
• Sumame cuanto debo pagar esta quincena`

	askDateText       = "¿Para cuándo te lo recuerdo? (en 10 minutos / mañana 7pm / 2026-02-03 07:00)"
	dateNotUnderstood = "No entendí esa fecha/hora 😅\nEj: en 10 minutos / mañana 7pm / hoy 5:30pm / 2026-02-03 07:00"
	reschedulePrompt  = "⏳ ¿Cuándo te lo recuerdo otra vez?\nEjemplos:\n• en 10 minutos\n• hoy 5:30pm\n• mañana 7pm\n• 2026-02-03 07:00"
	reminderNotFound  = "No encontré ese recordatorio. Puede que ya esté eliminado."
	noPendingToMark   = "✅ No veo pendientes para marcar."
	alreadyResolved   = "✅ Ese recordatorio ya no está pendiente."
	genericFailure    = "Algo salió mal, intenta de nuevo."

	pendingTitle = "🗓️ Pendientes:"
	allTitle     = "🗂️ Lista completa:"
)
