// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package respond

import "fmt"

// Canned Azerbaijani phrases. AskForLocation is tagged
// session.ActionAskedForLocation by the emitting handler; the dialogue
// shortcut keys off that tag, not off this text.
const (
	Greeting = "Salam! Mən Bakı ictimai nəqliyyat köməkçisiyəm. " +
		"Hara getmək istədiyinizi yazın, sizə marşrut tapım."

	// GreetingWithStops is a format string; %s is a comma-separated list
	// of the nearest stop names.
	GreetingWithStops = "Salam! Mən Bakı ictimai nəqliyyat köməkçisiyəm. " +
		"Sizə ən yaxın dayanacaqlar: %s. Hara getmək istəyirsiniz?"

	AskForLocation = "Təəssüf ki, hal-hazırda yerinizi bilmirəm. " +
		"Zəhmət olmasa, olduğunuz yeri yazın və ya geolokasiya göndərin."

	RateLimitedApology = "Sorğu limiti aşılıb. Zəhmət olmasa, 1 dəqiqə gözləyin və yenidən cəhd edin."

	NoNearbyStops = "Yaxınlığınızda dayanacaq tapılmadı."

	GeneralContext = "Ümumi sual. Bakı ictimai nəqliyyat sistemi haqqında cavab ver."

	NoBusNumberContext = "Avtobus nömrəsi göstərilməyib."

	NoStopNameContext = "Dayanacaq adı göstərilməyib."
)

// StopNotFound is the reply for an unresolvable stop name.
func StopNotFound(name string) string {
	return fmt.Sprintf("'%s' adlı dayanacaq tapılmadı. Zəhmət olmasa, daha dəqiq yazın.", name)
}

// BusNotFound is the reply for an unknown bus number.
func BusNotFound(number string) string {
	return fmt.Sprintf("#%s nömrəli avtobus tapılmadı.", number)
}

// StopDetailNotFound is the reply when a resolved stop has no detail
// record.
func StopDetailNotFound(name string) string {
	return fmt.Sprintf("'%s' haqqında məlumat tapılmadı.", name)
}

// replySystemPrompt frames every generation call.
const replySystemPrompt = `Sən Bakı ictimai nəqliyyat köməkçisisən. Azərbaycan dilində qısa, səmimi və dəqiq cavab ver.
Yalnız verilən kontekstdəki məlumatlardan istifadə et; kontekstdə olmayan marşrut və ya dayanacaq uydurma.

Kontekst:
%s

İstifadəçi mesajı: %s`
