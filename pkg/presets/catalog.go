package presets

// Preset は名前付きのプロンプトテンプレートです。
type Preset struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

var catalog = []Preset{
	{Name: "Savanna Gold", Prompt: "Apply a warm, golden hour filter, enhancing oranges and yellows, reminiscent of a savanna sunset."},
	{Name: "Ankara Pop", Prompt: "Boost the color saturation and contrast dramatically, making patterns pop like in vibrant Ankara fabric."},
	{Name: "Kente Weave", Prompt: "Add a subtle cross-hatch texture overlay and slightly desaturate the colors, mimicking the look of Kente cloth."},
	{Name: "Nollywood Drama", Prompt: "Increase the contrast and add a slight cinematic blue tint to the shadows for a dramatic, film-like effect."},
	{Name: "Masai Red", Prompt: "Make all red tones in the image deeper and more vibrant, inspired by the iconic Masai shuka."},
	{Name: "Remove Background", Prompt: "Remove the background of this image, keeping only the main subject with a transparent or neutral background."},
	{Name: "Change Cloth Color", Prompt: "Change the color of the main person's clothing to [specify color, e.g., vibrant red]."},
	{Name: "Change Cloth Type", Prompt: "Change the main person's outfit to a [specify style, e.g., formal suit, leather jacket]."},
	{Name: "Van Gogh", Prompt: "Transform this photo into a Van Gogh-style painting, with thick, swirling impasto brushstrokes and vibrant, expressive colors."},
	{Name: "Comic Book", Prompt: "Convert this image into a comic book style, with bold black outlines, vibrant flat colors, and halftone dot shading."},
	{Name: "Rick and Morty", Prompt: "Convert this image into the style of Rick and Morty, characterized by Surreal sci-fi, dark humor, neon palettes."},
	{Name: "BoJack Horseman", Prompt: "Convert this image into the style of BoJack Horseman, characterized by Flat 2D, emotional satire, muted colors."},
	{Name: "South Park", Prompt: "Convert this image into the style of South Park, characterized by Cutout animation, crude humor, fast production."},
	{Name: "The Simpsons", Prompt: "Convert this image into the style of The Simpsons, characterized by Classic 2D sitcom, iconic yellow characters."},
	{Name: "Family Guy", Prompt: "Convert this image into the style of Family Guy, characterized by Sitcom-style 2D, absurd gags, pop culture."},
	{Name: "Big Mouth", Prompt: "Convert this image into the style of Big Mouth, characterized by Exaggerated 2D, edgy humor, puberty themes."},
	{Name: "Avatar: The Last Airbender", Prompt: "Convert this image into the style of Avatar: The Last Airbender, characterized by Anime-inspired 2D, elemental powers, epic story."},
	{Name: "Adventure Time", Prompt: "Convert this image into the style of Adventure Time, characterized by Whimsical, surreal, abstract characters."},
	{Name: "Gravity Falls", Prompt: "Convert this image into the style of Gravity Falls, characterized by Mystery, forest tones, cryptic symbols."},
	{Name: "Steven Universe", Prompt: "Convert this image into the style of Steven Universe, characterized by Soft pastel 2D, emotional depth, identity themes."},
	{Name: "The Owl House", Prompt: "Convert this image into the style of The Owl House, characterized by Fantasy, anime-inspired, magical world."},
	{Name: "Arcane", Prompt: "Convert this image into the style of Arcane, characterized by Painterly 3D, cinematic lighting, League of Legends universe."},
	{Name: "Love, Death & Robots", Prompt: "Convert this image into the style of Love, Death & Robots, characterized by Mixed styles, experimental visuals, anthology."},
	{Name: "Star Wars: The Clone Wars", Prompt: "Convert this image into the style of Star Wars: The Clone Wars, characterized by Stylized 3D, action, lore-rich."},
	{Name: "Trollhunters", Prompt: "Convert this image into the style of Trollhunters, characterized by DreamWorks CGI, fantasy adventure."},
}

// All はカタログ全体のコピーを表示順で返します。
func All() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup は名前が完全一致するプリセットを返します。
func Lookup(name string) (Preset, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Names はプリセット名の一覧を表示順で返します。
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, p := range catalog {
		names = append(names, p.Name)
	}
	return names
}
