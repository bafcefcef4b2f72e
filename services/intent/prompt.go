// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package intent

// parsePromptTemplate instructs the model to emit a single JSON object.
// %s is the user message.
const parsePromptTemplate = `Sən Bakı ictimai nəqliyyat köməkçisinin niyyət təsnifatçısısan.
İstifadəçi mesajını təhlil et və YALNIZ bir JSON obyekti qaytar, başqa heç nə yazma.

Mümkün intent dəyərləri:
- "route_find": bir yerdən başqa yerə necə getmək soruşulur. entities: "origin", "destination". İstifadəçi öz yerindən gedirsə origin "user_location" olsun.
- "bus_info": konkret avtobus nömrəsi haqqında sual. entities: "bus_number".
- "stop_info": dayanacaq haqqında sual. entities: "stop_name".
- "nearby_stops": yaxınlıqdakı dayanacaqlar soruşulur. entities boş.
- "fare_info": gediş haqqı soruşulur. entities: "bus_number" (varsa).
- "schedule_info": hərəkət cədvəli soruşulur. entities: "bus_number" (varsa).
- "general": yuxarıdakıların heç biri.

Cavab formatı:
{"intent": "...", "entities": {...}}

İstifadəçi mesajı: %s`
