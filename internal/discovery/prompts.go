package discovery

import "fmt"

// selectorRules are shared anti-hallucination constraints: every selector the
// model returns must be verifiable against the sampled document.
const selectorRules = `Rules:
- Return ONLY a JSON object, no prose and no markdown fences.
- Every CSS selector MUST exist in the provided HTML. Never invent class
  names or ids.
- Prefer short, stable selectors (one class or a bare tag).
- For elements without classes or ids, use the bare tag name.
- Use "" for any field that has no matching element.`

func catalogPrompt(pageURL, sample string) string {
	return fmt.Sprintf(`You are analyzing the HTML of an anime catalog page at %s.
Identify the repeating container that holds one anime entry, and the
selectors for its fields, evaluated RELATIVE to one container element.
If the container element is itself the <a> link, set "animeUrl" to "".

%s

Respond with this exact shape:
{"name": "<site name>", "domain": "<site domain>", "selectors": {"animeList": "<container selector>", "animeTitle": "", "animeCover": "", "animeSynopsis": "", "animeUrl": ""}}

HTML:
%s`, pageURL, selectorRules, sample)
}

func episodePrompt(pageURL, sample string) string {
	return fmt.Sprintf(`You are analyzing the HTML of an anime detail page at %s.
Identify the repeating container that holds one episode entry, and the
selectors for its fields, evaluated RELATIVE to one container element.
If the container element is itself the <a> link, set "episodeUrl" to "".
Also identify the selector for the page's anime title.

%s

Respond with this exact shape:
{"selectors": {"animePageTitle": "", "episodeList": "<container selector>", "episodeNumber": "", "episodeTitle": "", "episodeUrl": ""}}

HTML:
%s`, pageURL, selectorRules, sample)
}

func playerPrompt(pageURL, sample string) string {
	return fmt.Sprintf(`You are analyzing the HTML of an anime episode page at %s.
Decide whether the page embeds a player (an iframe or video element with a
src) or only links out to an external player site.

%s

Respond with this exact shape:
{"playerType": "embedded" or "external", "videoPlayer": "<selector of the iframe/video element, or \"\">", "externalLinkSelector": "<selector of the outbound link, or \"\">"}

HTML:
%s`, pageURL, selectorRules, sample)
}
