package domain

// PresetTracks returns the built-in songs loaded when no playlist was saved.
// Sources and covers are relative to the assets directory.
func PresetTracks() []Track {
	return []Track{
		{
			ID:     "preset-night-owl",
			Title:  "Night Owl",
			Artist: "Broke For Free",
			Source: "assets/Broke_For_Free_-_01_-_Night_Owl.mp3",
			Cover:  "assets/pexels-photo-1717969.jpeg",
			Origin: PresetOrigin(),
		},
		{
			ID:     "preset-shipping-lanes",
			Title:  "Shipping Lanes",
			Artist: "Chad Crouch",
			Source: "assets/Chad_Crouch_-_Shipping_Lanes.mp3",
			Cover:  "assets/pexels-photo-2264753.jpeg",
			Origin: PresetOrigin(),
		},
		{
			ID:     "preset-enthusiast",
			Title:  "Enthusiast",
			Artist: "Tours",
			Source: "assets/Tours_-_01_-_Enthusiast.mp3",
			Cover:  "assets/pexels-photo-3100835.jpeg",
			Origin: PresetOrigin(),
		},
	}
}
