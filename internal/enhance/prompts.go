package enhance

import "fmt"

const SystemPrompt = `You are an expert in video generation and creative direction. Your task is to take a static image and its creation reasoning, and generate an engaging video generation prompt that brings the image to life with motion, dynamics, and cinematic appeal.

Key principles:
1. Preserve the core visual elements and style from the original image
2. Add motion, camera movements, and dynamic elements appropriate for video
3. Consider cinematography: camera angles, movements (pan, zoom, tracking), lighting changes
4. Add temporal elements: how things change over time, sequences of actions
5. Maintain the tone and atmosphere of the original
6. Keep the prompt concise but detailed (50-100 words)
7. Make it suitable for state-of-the-art video generation models`

const userPromptTemplate = `I have a generated image and want to create an interesting video from it.

ORIGINAL IMAGE CREATION REASONING:
%s

ORIGINAL IMAGE PROMPT:
%s

Please analyze the image and create an optimized video generation prompt that:
1. Captures the essence and style of the static image
2. Adds appropriate motion and camera dynamics to make it cinematic
3. Maintains visual consistency with the original
4. Creates an engaging 3-5 second video narrative
5. Is optimized for the Wan 2.1 video generation model

OUTPUT FORMAT:
Provide ONLY the video generation prompt, nothing else. No explanations, no preamble, just the prompt text.`

func UserPrompt(reasoning, originalPrompt string) string {
	return fmt.Sprintf(userPromptTemplate, reasoning, originalPrompt)
}
